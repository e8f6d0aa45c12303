// Package config loads all application configuration from environment
// variables, with optional .env support for development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every configuration value the server needs.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Broker   BrokerConfig
	Upload   UploadConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string // SQLite file path, e.g. ./data/shelftalk.db
}

// JWTConfig holds identity-token verification settings. shelftalk does not
// mint tokens; the auth collaborator does. We only verify the signature.
type JWTConfig struct {
	Secret string
}

// BrokerConfig holds delivery-broker settings.
//
// PostgresURL, when set, enables the cross-process fan-out bridge: every
// publish is relayed through Postgres LISTEN/NOTIFY so that workers other
// than the one handling the originating request still deliver to their
// connected clients. Empty means single-process, local-only delivery.
type BrokerConfig struct {
	PostgresURL string
}

// UploadConfig holds attachment blob store settings.
type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes
}

// EmailConfig holds the optional Resend sender used for invite emails.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// Load builds a Config from the environment. A .env file is loaded first if
// present; missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "26214400"), 10, 64) // 25MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/shelftalk.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Broker: BrokerConfig{
			PostgresURL: getEnv("BROKER_POSTGRES_URL", ""),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
