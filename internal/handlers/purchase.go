package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"
	"RapperDashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PurchaseHandler — прямые операции журнала покупок.
type PurchaseHandler struct {
	purchases *service.PurchaseService
	logger    *zap.SugaredLogger
}

func NewPurchaseHandler(purchases *service.PurchaseService, logger *zap.SugaredLogger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, logger: logger}
}

type createPurchaseRequest struct {
	Items     []model.PurchaseItem `json:"items"`
	UserID    string               `json:"userId"`
	Total     float64              `json:"total"`
	Timestamp *time.Time           `json:"timestamp"`
	SyncedAt  *time.Time           `json:"syncedAt"`
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Faltan datos requeridos: items, userId, total")
		return
	}
	if req.Items == nil || req.UserID == "" || req.Total == 0 {
		fail(w, http.StatusBadRequest, "Faltan datos requeridos: items, userId, total")
		return
	}
	if len(req.Items) == 0 {
		fail(w, http.StatusBadRequest, "Items debe ser un array con al menos un elemento")
		return
	}

	purchase, err := h.purchases.Record(r.Context(), service.RecordPurchaseRequest{
		UserID:    req.UserID,
		Items:     req.Items,
		Total:     req.Total,
		Timestamp: req.Timestamp,
		SyncedAt:  req.SyncedAt,
		Meta: service.RequestMeta{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoItems):
			fail(w, http.StatusBadRequest, "Items debe ser un array con al menos un elemento")
		case errors.Is(err, service.ErrTotalMismatch):
			fail(w, http.StatusBadRequest, "El total no coincide con la suma de los items")
		case errors.Is(err, service.ErrMissingUserID):
			fail(w, http.StatusBadRequest, "Faltan datos requeridos: items, userId, total")
		default:
			h.logger.Errorw("create purchase failed", "user_id", req.UserID, "error", err)
			fail(w, http.StatusInternalServerError, "Error al procesar la compra")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Compra registrada exitosamente",
		"data": map[string]any{
			"purchase": service.PurchaseSummary{
				ID:        purchase.ID,
				UserID:    purchase.UserID,
				Total:     purchase.Total,
				ItemCount: purchase.ItemCount(),
				Status:    purchase.Status,
				Source:    purchase.Metadata.Source,
				CreatedAt: purchase.CreatedAt,
			},
		},
	})
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repo.PurchaseFilter{
		UserID: q.Get("userId"),
		Status: q.Get("status"),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("skip")); err == nil {
		f.Skip = v
	}

	purchases, err := h.purchases.List(r.Context(), f)
	if err != nil {
		h.logger.Errorw("list purchases failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener compras")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    purchases,
	})
}

func (h *PurchaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	purchase, err := h.purchases.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			fail(w, http.StatusNotFound, "Compra no encontrada")
			return
		}
		h.logger.Errorw("get purchase failed", "purchase_id", id, "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener la compra")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    purchase,
	})
}

func (h *PurchaseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	stats, err := h.purchases.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("purchase stats failed", "user_id", userID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener estadísticas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}
