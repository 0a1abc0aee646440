package handlers

import (
	"net/http"
	"time"

	"RapperDashboard/internal/config"
	"RapperDashboard/internal/middleware"
	"RapperDashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	purchaseService *service.PurchaseService,
	subscriptionService *service.SubscriptionService,
	dispatcher *service.Dispatcher,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithMetrics)

	// Handlers
	authHandler := NewAuthHandler(userService, logger, cfg)
	purchaseHandler := NewPurchaseHandler(purchaseService, logger)
	cartHandler := NewCartHandler(purchaseService, logger)
	notificationHandler := NewNotificationHandler(subscriptionService, dispatcher, logger, cfg)
	adminHandler := NewAdminHandler(userService, subscriptionService, dispatcher, logger)

	requireAuth := middleware.RequireAuth(cfg.AuthSecret)

	// Auth
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Get("/auth/verify", authHandler.Verify)
	})

	// Purchases (публичные для offline-first синка)
	r.Post("/purchases", purchaseHandler.Create)
	r.Get("/purchases", purchaseHandler.List)
	r.Get("/purchases/stats/{userId}", purchaseHandler.Stats)
	r.Get("/purchases/{id}", purchaseHandler.GetByID)

	// Offline cart sync (Service Worker)
	r.Post("/cart/sync", cartHandler.Sync)

	// Push notifications
	r.Get("/notifications/vapid-public-key", notificationHandler.VAPIDPublicKey)
	r.Post("/notifications/subscribe", notificationHandler.Subscribe)
	r.Post("/notifications/unsubscribe", notificationHandler.Unsubscribe)
	r.Post("/notifications/send", notificationHandler.Send)
	r.Get("/notifications/stats", notificationHandler.Stats)
	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth, middleware.RequireAdmin)
		pr.Post("/notifications/users/{userId}/send", notificationHandler.SendToUser)
	})

	// Admin
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(requireAuth, middleware.RequireAdmin)
		ar.Get("/users/subscribed", adminHandler.SubscribedUsers)
		ar.Post("/send-notification", adminHandler.SendNotification)
	})

	r.Get("/health", health)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "Ruta no encontrada")
	})

	return &Handler{Router: r}
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"message":   "Rapper Dashboard API funcionando",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"features": map[string]bool{
			"pushNotifications": true,
			"offlineSync":       true,
		},
	})
}
