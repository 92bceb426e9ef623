// Package config loads server settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	Addr           string        `env:"BOWLING_ADDR"            envDefault:"127.0.0.1:8080"`
	Store          string        `env:"BOWLING_STORE"           envDefault:"memory"`
	SQLitePath     string        `env:"BOWLING_SQLITE_PATH"`
	ReadTimeout    time.Duration `env:"BOWLING_READ_TIMEOUT"    envDefault:"10s"`
	WriteTimeout   time.Duration `env:"BOWLING_WRITE_TIMEOUT"   envDefault:"60s"`
	RequestTimeout time.Duration `env:"BOWLING_REQUEST_TIMEOUT" envDefault:"60s"`

	OpenAIKey       string `env:"OPENAI_API_KEY"`
	LegacyOpenAIKey string `env:"OPENAI_API"`
	OpenAIModel     string `env:"BOWLING_OPENAI_MODEL"    envDefault:"gpt-4o-mini"`
	OpenAIBaseURL   string `env:"BOWLING_OPENAI_BASE_URL"`

	KeyringService  string `env:"BOWLING_KEYRING_SERVICE"  envDefault:"bowling-score-go"`
	KeyringFallback string `env:"BOWLING_KEYRING_FALLBACK"`

	// SummaryRPS <= 0 disables the summary rate limit.
	SummaryRPS   float64 `env:"BOWLING_SUMMARY_RPS"   envDefault:"1"`
	SummaryBurst int     `env:"BOWLING_SUMMARY_BURST" envDefault:"5"`

	// TrustProxy keys clients on X-Forwarded-For/X-Real-IP instead of the
	// connection address.
	TrustProxy bool `env:"BOWLING_TRUST_PROXY" envDefault:"false"`
}

// APIKey returns OPENAI_API_KEY, falling back to the older OPENAI_API name.
func (c Config) APIKey() string {
	if k := strings.TrimSpace(c.OpenAIKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.LegacyOpenAIKey)
}

// Load reads the environment, then applies flag overrides from args.
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("bowling-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "storage backend (memory or sqlite)")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "sqlite database path")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and combinations.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreMemory, StoreSQLite))
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.SummaryRPS > 0 && c.SummaryBurst < 1 {
		errs = append(errs, errors.New("summary burst must be at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
