package config

import (
	"errors"
	"os"
	"strings"
)

type Config struct {
	DBDSN    string
	HTTPAddr string
	LogLevel string
	RedisDSN string

	// raw secrets kept in-memory only; never log these
	SecretKey     string
	AdminPassword string

	AdminEmail   string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string

	CORSOrigins []string
}

func Load() (Config, error) {
	cfg := Config{
		DBDSN:         os.Getenv("DB_DSN"),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		RedisDSN:      getenvDefault("REDIS_DSN", "redis://localhost:6379/0"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getenvDefault("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		FromEmail:     getenvDefault("FROM_EMAIL", "portfolio@localhost"),
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("missing DB_DSN")
	}
	if cfg.SecretKey == "" {
		return Config{}, errors.New("missing SECRET_KEY")
	}
	if cfg.AdminPassword == "" {
		return Config{}, errors.New("missing ADMIN_PASSWORD")
	}

	// the notification recipient defaults to the SMTP account
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = cfg.SMTPUser
	}

	// parse CORS origins
	corsOrigins := getenvDefault("CORS_ORIGINS", "")
	if corsOrigins != "" {
		cfg.CORSOrigins = strings.Split(corsOrigins, ",")
		for i := range cfg.CORSOrigins {
			cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
		}
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
