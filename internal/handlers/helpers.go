package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"RapperDashboard/internal/model"
)

// writeJSON сериализует ответ; все тела — JSON UTF-8.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail — стандартный конверт ошибки {success:false, message}.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// clientIP — адрес клиента без порта.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// userJSON — публичное представление пользователя (без хеша пароля).
func userJSON(u *model.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"name":     u.Name,
		"email":    u.Email,
		"role":     u.Role,
	}
}
