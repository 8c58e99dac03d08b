package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// StoreBackend selects where room aggregates live: "redis" or "memory".
	StoreBackend string        `env:"STORE_BACKEND" envDefault:"redis"`
	RoomTTL      time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	ArchivePath  string        `env:"ARCHIVE_PATH"`

	Engine EngineConfig
	Redis  RedisConfig
}

type EngineConfig struct {
	InboxSize       int           `env:"ROOM_INBOX_SIZE" envDefault:"64"`
	NextGameDelay   time.Duration `env:"NEXT_GAME_DELAY" envDefault:"5s"`
	TaxDisplayDelay time.Duration `env:"TAX_DISPLAY_DELAY" envDefault:"5s"`
	IdleTimeout     time.Duration `env:"ROOM_IDLE_TIMEOUT" envDefault:"10m"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StoreBackend != "redis" && cfg.StoreBackend != "memory" {
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return &cfg, nil
}
