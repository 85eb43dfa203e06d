package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Supported database drivers.
const (
	DriverPGX    = "pgx"
	DriverSQLDB  = "postgres"
	DriverSQLX   = "sqlx"
	DriverSQLite = "sqlite"
)

// ErrUnsupportedDriver is returned for an unknown LENDING_DB_DRIVER.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config holds all settings of a lending deployment.
type Config struct {
	LoanPeriodDays     int    `env:"LENDING_LOAN_PERIOD_DAYS"     envDefault:"14"`
	LateFeePerDay      int64  `env:"LENDING_LATE_FEE_PER_DAY"     envDefault:"100"`
	DefaultBorrowLimit int    `env:"LENDING_DEFAULT_BORROW_LIMIT" envDefault:"3"`
	DBDriver           string `env:"LENDING_DB_DRIVER"            envDefault:"sqlite"`
	DBDSN              string `env:"LENDING_DB_DSN"               envDefault:"file:lending.db"`
	NotifyWorkers      int    `env:"LENDING_NOTIFY_WORKERS"       envDefault:"2"`
	NotifyQueueSize    int    `env:"LENDING_NOTIFY_QUEUE_SIZE"    envDefault:"256"`
	LogLevel           string `env:"LENDING_LOG_LEVEL"            envDefault:"info"`
}

// LoadFromEnv parses the configuration from environment variables and validates it.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the lending policy, the driver and the notification settings.
func (c Config) Validate() error {
	if err := c.Policy().Validate(); err != nil {
		return err
	}

	switch c.DBDriver {
	case DriverPGX, DriverSQLDB, DriverSQLX, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.DBDriver)
	}

	if c.NotifyWorkers < 1 {
		return fmt.Errorf("LENDING_NOTIFY_WORKERS must be at least 1, got %d", c.NotifyWorkers)
	}

	if c.NotifyQueueSize < 0 {
		return fmt.Errorf("LENDING_NOTIFY_QUEUE_SIZE must not be negative, got %d", c.NotifyQueueSize)
	}

	return nil
}

// Policy returns the lending rules of this configuration.
func (c Config) Policy() lending.Policy {
	return lending.Policy{
		LoanPeriodDays:     c.LoanPeriodDays,
		LateFeePerDay:      c.LateFeePerDay,
		DefaultBorrowLimit: c.DefaultBorrowLimit,
	}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
