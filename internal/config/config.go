package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Store backends.
const (
	BackendList     = "list"
	BackendExpiring = "expiring"
	BackendMemory   = "memory"
)

// Delivery strategies.
const (
	DeliveryPoll = "poll"
	DeliveryPush = "push"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	RedisURL string `env:"REDIS_URL" default:"redis://localhost:6379"`
	RedisDB  int    `env:"REDIS_DB" default:"0"`

	StoreBackend string `env:"STORE_BACKEND" default:"expiring"`
	DeliveryMode string `env:"DELIVERY_MODE" default:"push"`

	MessageTTL   time.Duration `env:"MESSAGE_TTL" default:"10s"`
	PollInterval time.Duration `env:"POLL_INTERVAL" default:"200ms"`
	MaxMessages  int           `env:"MAX_MESSAGES" default:"500"`

	// Inset position bounds, in percent of the viewport. Cosmetic: keeps
	// messages away from the edges.
	MinX float64 `env:"MIN_X" default:"10"`
	MaxX float64 `env:"MAX_X" default:"90"`
	MinY float64 `env:"MIN_Y" default:"5"`
	MaxY float64 `env:"MAX_Y" default:"85"`

	PostRatePerSecond float64 `env:"POST_RATE_PER_SECOND" default:"5"`
	PostBurst         int     `env:"POST_BURST" default:"10"`

	MaxFeedClients int `env:"MAX_FEED_CLIENTS" default:"1000"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	switch cfg.StoreBackend {
	case BackendList, BackendExpiring, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of list, expiring, memory (got %q)", cfg.StoreBackend)
	}

	switch cfg.DeliveryMode {
	case DeliveryPoll, DeliveryPush:
	default:
		return fmt.Errorf("DELIVERY_MODE must be poll or push (got %q)", cfg.DeliveryMode)
	}

	if cfg.StoreBackend != BackendMemory && cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the %s backend", cfg.StoreBackend)
	}

	if cfg.MessageTTL <= 0 {
		return fmt.Errorf("MESSAGE_TTL must be positive (got %v)", cfg.MessageTTL)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive (got %v)", cfg.PollInterval)
	}
	if cfg.MaxMessages <= 0 {
		return fmt.Errorf("MAX_MESSAGES must be positive (got %d)", cfg.MaxMessages)
	}

	if cfg.MinX >= cfg.MaxX || cfg.MinY >= cfg.MaxY {
		return fmt.Errorf("position bounds must satisfy MIN_X < MAX_X and MIN_Y < MAX_Y")
	}
	if cfg.MinX < 0 || cfg.MaxX > 100 || cfg.MinY < 0 || cfg.MaxY > 100 {
		return fmt.Errorf("position bounds must lie within 0..100 percent")
	}

	return nil
}
