package handlers

import (
	"net/http"
	"testing"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	t.Run("401 without token", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/admin/users/subscribed", "", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Token no proporcionado", decodeBody(t, w)["message"])
	})

	t.Run("403 for regular user", func(t *testing.T) {
		env := newTestEnv(t)
		user := &model.User{ID: "u-1", Username: "maria", Role: model.RoleUser}

		w := env.do(http.MethodGet, "/admin/users/subscribed", "",
			map[string]string{"Authorization": "Bearer " + env.authToken(t, user)})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Acceso denegado. Se requieren permisos de administrador.", decodeBody(t, w)["message"])
	})
}

func TestAdminSubscribedUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := &model.User{ID: "a-1", Username: "admin", Role: model.RoleAdmin}

	env.subs.On("ActiveUserIDs", mock.Anything).Return([]string{"u-1", "u-2"}, nil).Once()
	env.users.On("ListUsersByIDs", mock.Anything, []string{"u-1", "u-2"}).Return([]model.User{
		{ID: "u-1", Username: "maria", Name: "María", Role: model.RoleUser},
		{ID: "u-2", Username: "juan", Name: "Juan", Role: model.RoleUser},
	}, nil).Once()
	env.subs.On("ListActiveSubscriptions", mock.Anything, repo.SubscriptionFilter{UserID: "u-1"}).
		Return([]model.PushSubscription{{ID: "s-1"}, {ID: "s-2"}}, nil).Once()
	env.subs.On("ListActiveSubscriptions", mock.Anything, repo.SubscriptionFilter{UserID: "u-2"}).
		Return([]model.PushSubscription{{ID: "s-3"}}, nil).Once()

	w := env.do(http.MethodGet, "/admin/users/subscribed", "",
		map[string]string{"Authorization": "Bearer " + env.authToken(t, admin)})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(2), resp["count"])
	users := resp["users"].([]any)
	first := users[0].(map[string]any)
	assert.Equal(t, "maria", first["username"])
	assert.Equal(t, float64(2), first["subscriptionCount"])
	env.subs.AssertExpectations(t)
}

func TestAdminSendNotification(t *testing.T) {
	admin := &model.User{ID: "a-1", Username: "admin", Role: model.RoleAdmin}

	t.Run("200 reaches user on every origin", func(t *testing.T) {
		env := newTestEnv(t)
		env.dispatcher.SetSender(okSender)
		env.users.On("GetUserByID", mock.Anything, "u-1").Return(&model.User{
			ID: "u-1", Username: "maria", Name: "María",
		}, nil).Once()
		// без фильтра по origin: пользователь достаётся на всех устройствах
		env.subs.On("ListActiveSubscriptions", mock.Anything, repo.SubscriptionFilter{UserID: "u-1"}).
			Return([]model.PushSubscription{
				{ID: "s-1", Endpoint: "https://push/1"},
				{ID: "s-2", Endpoint: "https://push/2"},
			}, nil).Once()
		env.subs.On("MarkUsed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		w := env.do(http.MethodPost, "/admin/send-notification",
			`{"userId":"u-1","title":"Hola","body":"Mensaje del administrador"}`,
			map[string]string{"Authorization": "Bearer " + env.authToken(t, admin)})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody(t, w)
		assert.Equal(t, "Notificación enviada a maria", resp["message"])
		assert.Equal(t, float64(2), resp["sent"])
		recipient := resp["recipient"].(map[string]any)
		assert.Equal(t, "maria", recipient["username"])
		assert.Equal(t, "María", recipient["name"])
	})

	t.Run("400 with incomplete body", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/admin/send-notification", `{"userId":"u-1"}`,
			map[string]string{"Authorization": "Bearer " + env.authToken(t, admin)})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "userId, title y body son requeridos", decodeBody(t, w)["message"])
	})

	t.Run("404 for unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("GetUserByID", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound).Once()

		w := env.do(http.MethodPost, "/admin/send-notification",
			`{"userId":"ghost","title":"t","body":"b"}`,
			map[string]string{"Authorization": "Bearer " + env.authToken(t, admin)})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Usuario no encontrado", decodeBody(t, w)["message"])
	})

	t.Run("404 when user has no active subscriptions", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("GetUserByID", mock.Anything, "u-1").Return(&model.User{
			ID: "u-1", Username: "maria",
		}, nil).Once()
		env.subs.On("ListActiveSubscriptions", mock.Anything, repo.SubscriptionFilter{UserID: "u-1"}).
			Return([]model.PushSubscription{}, nil).Once()

		w := env.do(http.MethodPost, "/admin/send-notification",
			`{"userId":"u-1","title":"t","body":"b"}`,
			map[string]string{"Authorization": "Bearer " + env.authToken(t, admin)})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "El usuario maria no tiene suscripciones activas", decodeBody(t, w)["message"])
	})
}
