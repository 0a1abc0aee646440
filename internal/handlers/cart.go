package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/service"

	"go.uber.org/zap"
)

// CartHandler — синхронизация офлайн-очереди Service Worker'а.
type CartHandler struct {
	purchases *service.PurchaseService
	logger    *zap.SugaredLogger
}

func NewCartHandler(purchases *service.PurchaseService, logger *zap.SugaredLogger) *CartHandler {
	return &CartHandler{purchases: purchases, logger: logger}
}

type syncRequest struct {
	// Каждый элемент разбирается отдельно: кривой элемент очереди
	// не должен валить разбор всего батча.
	Items  []json.RawMessage `json:"items"`
	UserID string            `json:"userId"`
}

// syncQueueEntry — явная схема элемента очереди на границе API.
type syncQueueEntry struct {
	ID        string               `json:"id"`
	UserID    string               `json:"userId"`
	Timestamp *time.Time           `json:"timestamp"`
	CreatedAt *time.Time           `json:"createdAt"`
	Total     *float64             `json:"total"`
	Items     []model.PurchaseItem `json:"items"`
}

// Sync принимает офлайн-очередь покупок и сверяет её с журналом.
// Контракт: 200 при частичном или полном успехе, 400 когда не обработан
// ни один элемент по вине клиента, 500 только при недоступном хранилище —
// тогда Service Worker сохраняет очередь и повторяет позже.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Items == nil {
		h.logger.Warnw("cart sync with invalid payload")
		fail(w, http.StatusBadRequest, "Formato de datos de carrito no válido.")
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Cola de sincronización vacía, no se requiere acción.",
		})
		return
	}

	expectedUserID := req.UserID
	if expectedUserID == "" {
		expectedUserID = r.Header.Get("X-User-ID")
	}

	h.logger.Infow("cart sync started", "received", len(req.Items), "user_id", expectedUserID)

	// Граница: сырой элемент → типизированная запись или ошибка валидации
	entries := make([]service.SyncEntry, 0, len(req.Items))
	parseErrors := make([]service.SyncError, 0)
	for _, raw := range req.Items {
		var e syncQueueEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			parseErrors = append(parseErrors, service.SyncError{Reason: "Datos incompletos"})
			continue
		}
		entries = append(entries, service.SyncEntry{
			QueueID:   e.ID,
			UserID:    e.UserID,
			Items:     e.Items,
			Total:     e.Total,
			Timestamp: e.Timestamp,
			CreatedAt: e.CreatedAt,
		})
	}

	outcome := h.purchases.SyncBatch(r.Context(), entries, expectedUserID, service.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	outcome.Errors = append(parseErrors, outcome.Errors...)

	processed := len(outcome.Processed)
	message := fmt.Sprintf("%d compras sincronizadas exitosamente.", processed)
	if processed == 0 {
		message = "No se pudo procesar ningún elemento de la cola."
	}

	resp := map[string]any{
		"success":        processed > 0,
		"message":        message,
		"processedCount": processed,
		"totalReceived":  len(req.Items),
		"errorCount":     len(outcome.Errors),
		"purchases":      outcome.Processed,
	}
	if len(outcome.Errors) > 0 {
		resp["errors"] = outcome.Errors
	}

	if processed == 0 {
		if outcome.StorageFailures() > 0 {
			// хранилище недоступно: клиент должен сохранить очередь и повторить
			h.logger.Errorw("cart sync storage unavailable", "received", len(req.Items))
			fail(w, http.StatusInternalServerError, "Error interno del servidor al procesar la cola.")
			return
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	h.logger.Infow("cart sync finished",
		"processed", processed,
		"received", len(req.Items),
		"errors", len(outcome.Errors),
	)
	writeJSON(w, http.StatusOK, resp)
}
