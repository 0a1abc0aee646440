package model

import "time"

// SubscriptionKeys — клиентские ключи шифрования push-подписки.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription — push-endpoint браузера. Endpoint — естественный ключ:
// повторная подписка с тем же endpoint обновляет запись, а не дублирует её.
// Отписка и «мёртвый» endpoint (410 Gone) переводят active=false.
type PushSubscription struct {
	ID       string           `gorm:"primaryKey;type:uuid" json:"id"`
	Endpoint string           `gorm:"uniqueIndex;not null" json:"endpoint"`
	Keys     SubscriptionKeys `gorm:"serializer:json;not null" json:"keys"`

	UserID *string `gorm:"index" json:"userId,omitempty"` // анонимные подписки допустимы

	UserAgent string `json:"userAgent,omitempty"`
	Origin    string `gorm:"index;not null;default:unknown" json:"origin"`

	Active   bool      `gorm:"index;not null;default:true" json:"active"`
	LastUsed time.Time `json:"lastUsed"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
