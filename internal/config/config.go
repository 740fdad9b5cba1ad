package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDatabaseURL   = "auth.db"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultCORSOrigin    = "http://localhost:3000"
	DefaultKafkaTopic    = "user_events"
)

var ErrMissingSecret = errors.New("missing required env SECRET_KEY")

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	SecretKey   []byte
	AccessTTL   time.Duration
	CORSOrigins []string

	AdminUsername string
	AdminPassword string

	KafkaBrokers []string
	KafkaTopic   string
}

// LoadDotEnv loads path into the environment when it exists. Variables that
// are already set win.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "path", path, "error", err)
	}
}

func Load() (Config, error) {
	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "auth"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL: EnvDefault("DATABASE_URL", DefaultDatabaseURL),

		SecretKey:   []byte(os.Getenv("SECRET_KEY")),
		AccessTTL:   time.Duration(EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		CORSOrigins: CSV(EnvDefault("CORS_ORIGINS", DefaultCORSOrigin)),

		AdminUsername: EnvDefault("ADMIN_USERNAME", DefaultAdminUsername),
		AdminPassword: EnvDefault("ADMIN_PASSWORD", DefaultAdminPassword),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", DefaultKafkaTopic),
	}

	if len(cfg.SecretKey) == 0 {
		return Config{}, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %v", cfg.AccessTTL)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
