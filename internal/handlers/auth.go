package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"RapperDashboard/internal/config"
	"RapperDashboard/internal/middleware"
	"RapperDashboard/internal/service"
	"RapperDashboard/internal/token"

	"go.uber.org/zap"
)

// AuthHandler — регистрация, вход, проверка токена.
type AuthHandler struct {
	users  *service.UserService
	logger *zap.SugaredLogger
	cfg    *config.Config
}

func NewAuthHandler(users *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, logger: logger, cfg: cfg}
}

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Todos los campos son requeridos")
		return
	}
	if req.Username == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Todos los campos son requeridos")
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			fail(w, http.StatusBadRequest, "El nombre de usuario ya está en uso")
		case errors.Is(err, service.ErrEmailTaken):
			fail(w, http.StatusBadRequest, "El email ya está registrado")
		default:
			h.logger.Errorw("register failed", "username", req.Username, "error", err)
			fail(w, http.StatusInternalServerError, "Error al registrar usuario")
		}
		return
	}

	t, err := token.Issue(h.cfg.AuthSecret, user)
	if err != nil {
		h.logger.Errorw("token issue failed", "user_id", user.ID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al registrar usuario")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Usuario registrado exitosamente",
		"token":   t,
		"user":    userJSON(user),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Usuario y contraseña son requeridos")
		return
	}
	if req.Username == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Usuario y contraseña son requeridos")
		return
	}

	user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			fail(w, http.StatusUnauthorized, "Credenciales inválidas")
			return
		}
		h.logger.Errorw("login failed", "username", req.Username, "error", err)
		fail(w, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}

	t, err := token.Issue(h.cfg.AuthSecret, user)
	if err != nil {
		h.logger.Errorw("token issue failed", "user_id", user.ID, "error", err)
		fail(w, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login exitoso",
		"token":   t,
		"user":    userJSON(user),
	})
}

// Verify перечитывает пользователя из хранилища: токен мог пережить запись.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		fail(w, http.StatusUnauthorized, "Token no proporcionado")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		h.logger.Errorw("verify failed", "user_id", claims.Subject, "error", err)
		fail(w, http.StatusInternalServerError, "Error al verificar token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userJSON(user),
	})
}
