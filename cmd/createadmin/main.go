// createadmin — разовая утилита: создаёт администратора, если его ещё нет.
package main

import (
	"context"
	"errors"
	"os"

	"RapperDashboard/internal/config"
	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	if cfg.AdminPassword == "" {
		sugar.Errorw("ADMIN_PASSWORD is not set")
		os.Exit(1)
	}

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}
	defer func() { _ = repo.CloseDB(gormDB) }()

	users := repo.NewUserRepository(gormDB)
	ctx := context.Background()

	if existing, err := users.GetUserByUsername(ctx, "admin"); err == nil && existing != nil {
		sugar.Infow("admin user already exists", "user_id", existing.ID)
		return
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sugar.Fatalw("failed to check existing admin", "error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		sugar.Fatalw("failed to hash password", "error", err)
	}

	admin := &model.User{
		ID:       uuid.NewString(),
		Username: "admin",
		Name:     "Administrador",
		Email:    "admin@rapper-dashboard.local",
		Password: string(hash),
		Role:     model.RoleAdmin,
	}

	created, err := users.CreateUser(ctx, admin)
	if err != nil {
		sugar.Fatalw("failed to create admin", "error", err)
	}

	sugar.Infow("admin user created", "user_id", created.ID)
}
