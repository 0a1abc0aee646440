package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/token"
)

func issueTestToken(t *testing.T, secret, role string) string {
	t.Helper()
	raw, err := token.Issue(secret, &model.User{ID: "u-77", Username: "ari", Role: role})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return raw
}

// Тест: валидный bearer-токен — личность попадает в контекст
func TestRequireAuth_ValidToken(t *testing.T) {
	const secret = "test-secret"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetIdentityFromContext(r.Context())
		if !ok || claims.Subject != "u-77" {
			t.Fatalf("identity missing or wrong: %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})

	h := RequireAuth(secret)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, secret, "user"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rr.Code)
	}
}

// Тест: без заголовка — 401, хендлер не вызывается
func TestRequireAuth_MissingToken(t *testing.T) {
	h := RequireAuth("any-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be called without token")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

// Тест: токен с чужим секретом — 403
func TestRequireAuth_InvalidToken(t *testing.T) {
	h := RequireAuth("secret-B")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be called with invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "secret-A", "user"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

// Тест: RequireAdmin пропускает админа и режет обычного пользователя
func TestRequireAdmin(t *testing.T) {
	const secret = "test-secret"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(secret)(RequireAdmin(next))

	t.Run("admin ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, secret, "admin"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 for admin, got %d", rr.Code)
		}
	})

	t.Run("user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, secret, "user"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for plain user, got %d", rr.Code)
		}
	})
}
