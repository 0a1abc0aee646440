package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"RapperDashboard/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

// GetIdentityFromContext возвращает личность из контекста запроса.
func GetIdentityFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(identityKey).(*token.Claims)
	return claims, ok
}

// WithIdentity кладёт личность в контекст. Экспортирована для тестов хендлеров.
func WithIdentity(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, identityKey, claims)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

// RequireAuth пропускает дальше только запросы с валидным bearer-токеном.
// Отсутствие токена — 401, невалидный или истёкший — 403.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "Token no proporcionado")
				return
			}
			claims, err := token.Verify(secret, raw)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "Token inválido o expirado")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims)))
		})
	}
}

// RequireAdmin — поверх RequireAuth: пропускает только role=admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetIdentityFromContext(r.Context())
		if !ok || claims.Role != "admin" {
			writeAuthError(w, http.StatusForbidden, "Acceso denegado. Se requieren permisos de administrador.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
