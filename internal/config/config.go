package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

type Config struct {
	Port                     int      `env:"PORT" envDefault:"8080"`
	Env                      string   `env:"ENV" envDefault:"prod"`
	DatabaseURL              string   `env:"DATABASE_URL"`
	LedgerBackend            string   `env:"LEDGER_BACKEND" envDefault:"memory"`
	TotalRounds              int      `env:"TOTAL_ROUNDS" envDefault:"5"`
	WinningScore             int      `env:"WINNING_SCORE" envDefault:"100"`
	PublishDebounceMillis    int      `env:"PUBLISH_DEBOUNCE_MS" envDefault:"1500"`
	PollIntervalSeconds      int      `env:"POLL_SECONDS" envDefault:"3"`
	MatchHistoryLimit        int      `env:"MATCH_HISTORY_LIMIT" envDefault:"8"`
	DBMaxOpenConns           int      `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns           int      `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeSeconds int      `env:"DB_CONN_MAX_LIFETIME_SECONDS" envDefault:"300"`
	DBConnMaxIdleTimeSeconds int      `env:"DB_CONN_MAX_IDLE_SECONDS" envDefault:"60"`
	AllowedOrigins           []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	SessionIdleMinutes       int      `env:"SESSION_IDLE_MINUTES" envDefault:"30"`
}

func Default() Config {
	return Config{
		Port:                     8080,
		Env:                      "prod",
		LedgerBackend:            LedgerMemory,
		TotalRounds:              5,
		WinningScore:             100,
		PublishDebounceMillis:    1500,
		PollIntervalSeconds:      3,
		MatchHistoryLimit:        8,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		AllowedOrigins:           []string{"*"},
		SessionIdleMinutes:       30,
	}
}

// Load parses the environment on top of the defaults. Non-positive numeric
// values fall back to their defaults.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	defaults := Default()
	positive(&cfg.Port, defaults.Port)
	positive(&cfg.TotalRounds, defaults.TotalRounds)
	positive(&cfg.WinningScore, defaults.WinningScore)
	positive(&cfg.PublishDebounceMillis, defaults.PublishDebounceMillis)
	positive(&cfg.PollIntervalSeconds, defaults.PollIntervalSeconds)
	positive(&cfg.MatchHistoryLimit, defaults.MatchHistoryLimit)
	positive(&cfg.DBMaxOpenConns, defaults.DBMaxOpenConns)
	positive(&cfg.DBMaxIdleConns, defaults.DBMaxIdleConns)
	positive(&cfg.DBConnMaxLifetimeSeconds, defaults.DBConnMaxLifetimeSeconds)
	positive(&cfg.DBConnMaxIdleTimeSeconds, defaults.DBConnMaxIdleTimeSeconds)
	positive(&cfg.SessionIdleMinutes, defaults.SessionIdleMinutes)

	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))
	switch cfg.LedgerBackend {
	case LedgerMemory:
	case LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("LEDGER_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func (c Config) PublishDebounce() time.Duration {
	return time.Duration(c.PublishDebounceMillis) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second
}

func (c Config) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.DBConnMaxIdleTimeSeconds) * time.Second
}

// SessionIdle is how long a browser session may go unseen before its room is
// closed.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func positive(value *int, fallback int) {
	if *value <= 0 {
		*value = fallback
	}
}
