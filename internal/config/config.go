package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	CMCAPIKey       string        `envconfig:"CMC_API_KEY" required:"true"`
	CMCBaseURL      string        `envconfig:"CMC_BASE_URL" default:"https://pro-api.coinmarketcap.com"`
	QuoteTimeout    time.Duration `envconfig:"QUOTE_TIMEOUT" default:"10s"`
	QuoteRatePerMin int           `envconfig:"QUOTE_RATE_PER_MIN" default:"30"`

	DBDriver  string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath    string `envconfig:"DB_PATH" default:"./data/rates.db"`
	DBHost    string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort    int    `envconfig:"DB_PORT" default:"5432"`
	DBName    string `envconfig:"DB_NAME" default:"bot_db"`
	DBUser    string `envconfig:"DB_USER" default:"bot_user"`
	DBPass    string `envconfig:"DB_PASS"`
	DBSSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	ScheduleTZ           string        `envconfig:"SCHEDULE_TZ" default:"Local"`
	RecordCron           string        `envconfig:"RECORD_CRON" default:"0 * * * *"` // empty disables history recording
	FireTimeout          time.Duration `envconfig:"FIRE_TIMEOUT" default:"2m"`       // one report build and delivery
	MaxConcurrentUpdates int           `envconfig:"MAX_CONCURRENT_UPDATES" default:"16"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`  // json|console
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz, readyz
}

// Load reads environment variables into Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("SCHEDULE_TZ: %w", err)
	}
	if c.QuoteTimeout <= 0 {
		return fmt.Errorf("QUOTE_TIMEOUT must be positive, got %s", c.QuoteTimeout)
	}
	if c.QuoteRatePerMin <= 0 {
		return fmt.Errorf("QUOTE_RATE_PER_MIN must be positive, got %d", c.QuoteRatePerMin)
	}
	if c.FireTimeout <= 0 {
		return fmt.Errorf("FIRE_TIMEOUT must be positive, got %s", c.FireTimeout)
	}
	if c.MaxConcurrentUpdates <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_UPDATES must be positive, got %d", c.MaxConcurrentUpdates)
	}
	return nil
}

// Location resolves ScheduleTZ. "Local" means the server's zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ScheduleTZ)
}
