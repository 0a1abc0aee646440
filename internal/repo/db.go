package repo

import (
	"errors"

	"RapperDashboard/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrEmptyDSN — строка подключения не задана; сервер с этим не стартует.
var ErrEmptyDSN = errors.New("repo: database DSN is empty")

// InitDB открывает подключение и накатывает миграции моделей.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Purchase{},
		&model.PushSubscription{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// CloseDB закрывает нижележащее соединение. Вызывается при остановке сервера.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
