// Package token — выпуск и проверка JWT с личностью пользователя.
package token

import (
	"errors"
	"time"

	"RapperDashboard/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL — срок действия токена.
const TokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken — подпись/формат неверны или токен истёк.
var ErrInvalidToken = errors.New("token: invalid or expired")

// Claims — полезная нагрузка токена. Subject — ID пользователя.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Issue подписывает токен для пользователя. Без побочных эффектов.
func Issue(secret string, user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Verify разбирает и проверяет токен. Любая причина отказа
// (подпись, формат, срок) сводится к ErrInvalidToken.
func Verify(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
