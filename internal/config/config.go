package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`

	// Web Push (VAPID)
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `env:"VAPID_SUBJECT"`

	// Deployment scope: рассылки уходят только подпискам с этим origin
	PushOrigin string `env:"PUSH_ORIGIN"`

	// Используется только утилитой createadmin
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "адрес и порт сервера (host:port)")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.VAPIDPublicKey, "vapid-public", cfg.VAPIDPublicKey, "публичный VAPID ключ")
	flag.StringVar(&cfg.VAPIDPrivateKey, "vapid-private", cfg.VAPIDPrivateKey, "приватный VAPID ключ")
	flag.StringVar(&cfg.VAPIDSubject, "vapid-subject", cfg.VAPIDSubject, "VAPID subject (mailto: или URL)")
	flag.StringVar(&cfg.PushOrigin, "push-origin", cfg.PushOrigin, "origin деплоя для рассылок push")
	flag.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "пароль администратора (createadmin)")

	flag.Parse()

	// Defaults
	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:5000"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.VAPIDSubject == "" {
		cfg.VAPIDSubject = "mailto:example@domain.com"
	}
	if cfg.PushOrigin == "" {
		cfg.PushOrigin = "http://localhost:5173"
	}

	return cfg
}

// VAPIDConfigured — настроены ли ключи Web Push.
func (c *Config) VAPIDConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
