package repo

import (
	"fmt"
	"testing"

	"RapperDashboard/internal/model"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newTestDB инициализирует in-memory SQLite (modernc.org/sqlite) для тестов
// репозиториев; отдельная БД на каждый тест.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	// Миграции для всех моделей, используемых в репозиториях
	if err := db.AutoMigrate(&model.User{}, &model.Purchase{}, &model.PushSubscription{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}
