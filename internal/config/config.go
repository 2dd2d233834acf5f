package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

// Config holds the runtime (process) configuration read from the environment
type Config struct {
	TwelveAPIKey      string        `env:"TWELVE_API_KEY"`
	StrategyPath      string        `env:"STRATEGY_PATH, default=strategy.yaml"`
	LogLevel          string        `env:"LOG_LEVEL, default=info"`
	RequestTimeout    int           `env:"REQUEST_TIMEOUT, default=30"` // seconds
	RequestsPerSec    int           `env:"REQUESTS_PER_SEC, default=5"`
	MaxRetryTimeout   time.Duration `env:"MAX_RETRY_TIMEOUT, default=30s"`
	Workers           int           `env:"WORKERS, default=4"`
	InstrumentTimeout time.Duration `env:"INSTRUMENT_TIMEOUT, default=45s"`
	ScanInterval      time.Duration `env:"SCAN_INTERVAL, default=15m"`

	DB DBConfig `env:", prefix=DB_"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// DBConfig holds PostgreSQL connection parameters
type DBConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT, default=5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE, default=disable"`
}

// Enabled reports whether a database was configured at all
func (d DBConfig) Enabled() bool {
	return d.Host != "" && d.Name != ""
}

// Load initializes configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the process settings that would otherwise fail mid-cycle
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.RequestsPerSec < 1 {
		return fmt.Errorf("%w: REQUESTS_PER_SEC must be >= 1, got %d", ErrInvalidConfig, c.RequestsPerSec)
	}
	if c.InstrumentTimeout <= 0 {
		return fmt.Errorf("%w: INSTRUMENT_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: SCAN_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("%w: TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set", ErrInvalidConfig)
	}
	return nil
}

// RequestTimeoutDuration converts the seconds setting for the HTTP client
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
