package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/geoguess.db"`
	DataDir  string     `env:"DATA_DIR" envDefault:"data"`
	// RedisURL enables the shared reverse-geocode cache when set.
	RedisURL string `env:"REDIS_URL"`

	GoogleMapsAPIKey  string `env:"GOOGLE_MAPS_API_KEY"`
	StreetViewBaseURL string `env:"STREETVIEW_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/streetview"`
	GeocodeBaseURL    string `env:"GEOCODE_BASE_URL" envDefault:"https://maps.googleapis.com"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	SearchMaxAttempts int           `env:"SEARCH_MAX_ATTEMPTS" envDefault:"30"`
	SearchPacing      time.Duration `env:"SEARCH_PACING" envDefault:"100ms"`
	StopMinElapsed    time.Duration `env:"STOP_MIN_ELAPSED" envDefault:"60s"`
	HintCooldown      time.Duration `env:"HINT_COOLDOWN" envDefault:"4s"`
	StartCooldown     time.Duration `env:"START_COOLDOWN" envDefault:"5s"`
	GeocodeCacheTTL   time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"24h"`

	// ChatToken guards the chat ingress routes. Empty leaves them open.
	ChatToken string `env:"CHAT_TOKEN"`
	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty
	// disables the admin routes.
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SearchMaxAttempts <= 0 {
		return nil, fmt.Errorf("SEARCH_MAX_ATTEMPTS must be positive, got %d", cfg.SearchMaxAttempts)
	}
	return &cfg, nil
}

// SearchEnabled reports whether an imagery key is configured.
func (c *Config) SearchEnabled() bool { return c.GoogleMapsAPIKey != "" }
