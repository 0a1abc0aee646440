package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RapperDashboard/internal/config"
	"RapperDashboard/internal/handlers"
	"RapperDashboard/internal/metrics"
	"RapperDashboard/internal/middleware"
	"RapperDashboard/internal/repo"
	"RapperDashboard/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	metrics.MustRegister()

	// без строки подключения сервер не поднимаем
	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	purchaseRepo := repo.NewPurchaseRepository(gormDB)
	subscriptionRepo := repo.NewSubscriptionRepository(gormDB)

	userService := service.NewUserService(userRepo, sugar)
	purchaseService := service.NewPurchaseService(purchaseRepo, sugar)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, sugar)

	pushCfg := service.PushConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
	}
	if !pushCfg.Configured() {
		sugar.Warnw("VAPID keys are not configured, push delivery disabled")
	}
	dispatcher := service.NewDispatcher(subscriptionRepo, pushCfg, sugar)

	h := handlers.NewHandler(userService, purchaseService, subscriptionService, dispatcher, sugar, cfg)

	srv := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.Router,
	}

	sugar.Infow("Starting server",
		"addr", cfg.RunAddress,
		"push_origin", cfg.PushOrigin,
		"vapid_configured", pushCfg.Configured(),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	// остановка по сигналу: дослуживаем запросы, закрываем соединение с БД
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Infow("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	if err := repo.CloseDB(gormDB); err != nil {
		sugar.Errorw("Failed to close database", "error", err)
	}
}
