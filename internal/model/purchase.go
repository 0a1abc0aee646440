package model

import "time"

// Статусы покупки.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusSynced    = "synced"
)

// Источники покупки.
const (
	SourceOnline      = "online"
	SourceOfflineSync = "offline-sync"
)

// PurchaseItem — позиция покупки (трек). Неизменяема после записи.
type PurchaseItem struct {
	ID         string  `json:"id"`
	SongName   string  `json:"songName"`
	AlbumName  string  `json:"albumName"`
	Artist     string  `json:"artist"`
	AlbumCover string  `json:"albumCover"`
	Year       int     `json:"year"`
	Price      float64 `json:"price"`
}

// PurchaseMetadata — служебные данные запроса, породившего покупку.
type PurchaseMetadata struct {
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
	Source      string `json:"source"`
	QueueID     string `json:"queueId,omitempty"`
	SyncBatchID string `json:"syncBatchId,omitempty"`
}

// Purchase — запись о покупке. Items и Metadata хранятся как JSON-документы
// внутри строки, отдельные таблицы под них не заводятся.
type Purchase struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"userId"`

	Items []PurchaseItem `gorm:"serializer:json;not null" json:"items"`

	Total  float64 `gorm:"not null" json:"total"`
	Status string  `gorm:"index;not null;default:completed" json:"status"`

	Timestamp time.Time  `gorm:"index;not null" json:"timestamp"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`

	Metadata PurchaseMetadata `gorm:"serializer:json" json:"metadata"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// ItemCount — количество позиций в покупке.
func (p *Purchase) ItemCount() int {
	return len(p.Items)
}

// ItemsTotal — сумма по позициям.
func (p *Purchase) ItemsTotal() float64 {
	var sum float64
	for _, it := range p.Items {
		sum += it.Price
	}
	return sum
}
