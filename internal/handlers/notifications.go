package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"RapperDashboard/internal/config"
	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"
	"RapperDashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NotificationHandler — жизненный цикл подписок и рассылки.
type NotificationHandler struct {
	subscriptions *service.SubscriptionService
	dispatcher    *service.Dispatcher
	logger        *zap.SugaredLogger
	cfg           *config.Config
}

func NewNotificationHandler(
	subscriptions *service.SubscriptionService,
	dispatcher *service.Dispatcher,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *NotificationHandler {
	return &NotificationHandler{
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

func (h *NotificationHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.cfg.VAPIDPublicKey == "" {
		fail(w, http.StatusInternalServerError, "Clave pública VAPID no configurada")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"publicKey": h.cfg.VAPIDPublicKey,
	})
}

type subscribeRequest struct {
	Subscription struct {
		Endpoint string                 `json:"endpoint"`
		Keys     model.SubscriptionKeys `json:"keys"`
	} `json:"subscription"`
	UserID string `json:"userId"`
	Origin string `json:"origin"`
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subscription.Endpoint == "" {
		fail(w, http.StatusBadRequest, "Suscripción inválida")
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = r.Header.Get("Origin")
	}

	id, created, err := h.subscriptions.Subscribe(r.Context(), service.SubscribeRequest{
		Endpoint:  req.Subscription.Endpoint,
		Keys:      req.Subscription.Keys,
		UserID:    req.UserID,
		UserAgent: r.UserAgent(),
		Origin:    origin,
	})
	if err != nil {
		h.logger.Errorw("subscribe failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al guardar la suscripción")
		return
	}

	status := http.StatusOK
	message := "Suscripción actualizada"
	if created {
		status = http.StatusCreated
		message = "Suscripción registrada exitosamente"
	}

	writeJSON(w, status, map[string]any{
		"success":        true,
		"message":        message,
		"subscriptionId": id,
	})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		fail(w, http.StatusBadRequest, "Endpoint requerido")
		return
	}

	if err := h.subscriptions.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			fail(w, http.StatusNotFound, "Suscripción no encontrada")
			return
		}
		h.logger.Errorw("unsubscribe failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al desactivar la suscripción")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Suscripción desactivada",
	})
}

type sendRequest struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon"`
	Badge string         `json:"badge"`
	Data  map[string]any `json:"data"`
	Tag   string         `json:"tag"`
}

// Send — публичная рассылка по всем активным подпискам текущего деплоя.
// Подписки чужого origin (например, staging против production) не трогаются.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Body == "" {
		fail(w, http.StatusBadRequest, "Título y cuerpo son requeridos")
		return
	}

	subs, err := h.subscriptions.ListActive(r.Context(), repo.SubscriptionFilter{Origin: h.cfg.PushOrigin})
	if err != nil {
		h.logger.Errorw("list subscriptions failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al enviar notificaciones")
		return
	}

	if len(subs) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("No hay suscripciones activas para el entorno: %s", h.cfg.PushOrigin),
			"sent":    0,
		})
		return
	}

	if !h.dispatcher.Configured() {
		fail(w, http.StatusInternalServerError, "Claves VAPID no configuradas")
		return
	}

	res := h.dispatcher.Broadcast(r.Context(), subs, service.NotificationPayload{
		Title: req.Title,
		Body:  req.Body,
		Icon:  req.Icon,
		Badge: req.Badge,
		Data:  req.Data,
		Tag:   req.Tag,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notificaciones enviadas",
		"total":   res.Total,
		"sent":    res.Sent,
		"failed":  res.Failed,
	})
}

// SendToUser — адресная отправка одному пользователю (admin).
func (h *NotificationHandler) SendToUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Body == "" {
		fail(w, http.StatusBadRequest, "Título y cuerpo son requeridos")
		return
	}

	subs, err := h.subscriptions.ListActive(r.Context(), repo.SubscriptionFilter{
		UserID: userID,
		Origin: h.cfg.PushOrigin,
	})
	if err != nil {
		h.logger.Errorw("list subscriptions failed", "user_id", userID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al enviar notificación")
		return
	}

	if len(subs) == 0 {
		fail(w, http.StatusNotFound, "No hay suscripciones activas para este usuario en este entorno")
		return
	}

	if !h.dispatcher.Configured() {
		fail(w, http.StatusInternalServerError, "Claves VAPID no configuradas")
		return
	}

	res := h.dispatcher.Broadcast(r.Context(), subs, service.NotificationPayload{
		Title: req.Title,
		Body:  req.Body,
		Icon:  req.Icon,
		Badge: req.Badge,
		Data:  req.Data,
		Tag:   req.Tag,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notificación enviada al usuario",
		"sent":    res.Sent,
		"total":   res.Total,
	})
}

func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.subscriptions.Stats(r.Context())
	if err != nil {
		h.logger.Errorw("subscription stats failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener estadísticas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}
