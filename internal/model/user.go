package model

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User — учётная запись. Пароль хранится только как bcrypt-хеш
// и никогда не сериализуется в JSON.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:user" json:"role"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
