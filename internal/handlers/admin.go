package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"RapperDashboard/internal/repo"
	"RapperDashboard/internal/service"

	"go.uber.org/zap"
)

// AdminHandler — административные операции (только role=admin).
type AdminHandler struct {
	users         *service.UserService
	subscriptions *service.SubscriptionService
	dispatcher    *service.Dispatcher
	logger        *zap.SugaredLogger
}

func NewAdminHandler(
	users *service.UserService,
	subscriptions *service.SubscriptionService,
	dispatcher *service.Dispatcher,
	logger *zap.SugaredLogger,
) *AdminHandler {
	return &AdminHandler{
		users:         users,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// SubscribedUsers — пользователи с активными push-подписками и их количеством.
func (h *AdminHandler) SubscribedUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.subscriptions.SubscribedUserIDs(r.Context())
	if err != nil {
		h.logger.Errorw("subscribed user ids failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener usuarios suscritos")
		return
	}

	users, err := h.users.ListByIDs(r.Context(), ids)
	if err != nil {
		h.logger.Errorw("load subscribed users failed", "error", err)
		fail(w, http.StatusInternalServerError, "Error al obtener usuarios suscritos")
		return
	}

	usersData := make([]map[string]any, 0, len(users))
	for _, u := range users {
		subs, err := h.subscriptions.ListActive(r.Context(), repo.SubscriptionFilter{UserID: u.ID})
		if err != nil {
			h.logger.Errorw("count user subscriptions failed", "user_id", u.ID, "error", err)
			fail(w, http.StatusInternalServerError, "Error al obtener usuarios suscritos")
			return
		}
		entry := userJSON(&u)
		entry["subscriptionCount"] = len(subs)
		usersData = append(usersData, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(usersData),
		"users":   usersData,
	})
}

type adminSendRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Icon   string `json:"icon"`
}

// SendNotification — адресная нотификация по userId из тела запроса.
// В отличие от публичной рассылки не фильтрует по origin: администратор
// достаёт пользователя на всех его устройствах.
func (h *AdminHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req adminSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.Title == "" || req.Body == "" {
		fail(w, http.StatusBadRequest, "userId, title y body son requeridos")
		return
	}

	user, err := h.users.GetByID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		h.logger.Errorw("load user failed", "user_id", req.UserID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al enviar notificación")
		return
	}

	subs, err := h.subscriptions.ListActive(r.Context(), repo.SubscriptionFilter{UserID: user.ID})
	if err != nil {
		h.logger.Errorw("list user subscriptions failed", "user_id", user.ID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al enviar notificación")
		return
	}

	if len(subs) == 0 {
		fail(w, http.StatusNotFound, fmt.Sprintf("El usuario %s no tiene suscripciones activas", user.Username))
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
		Tag:   "admin-notification",
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Notificación enviada a %s", user.Username),
		"recipient": map[string]any{
			"username": user.Username,
			"name":     user.Name,
		},
		"sent":  res.Sent,
		"total": res.Total,
	})
}
