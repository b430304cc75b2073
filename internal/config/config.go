package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN" envDefault:"database/bank.db"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	// LogFile "-" means stdout.
	LogFile string `env:"LOG_FILE" envDefault:"database/bank.log"`

	LoginBackoffMin time.Duration `env:"LOGIN_BACKOFF_MIN" envDefault:"500ms"`
	LoginBackoffMax time.Duration `env:"LOGIN_BACKOFF_MAX" envDefault:"8s"`
}

// Load reads an optional .env file and then the BANK_ prefixed environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg, env.Options{Prefix: "BANK_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database driver '%s' not supported", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("BANK_DB_DSN must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log format '%s' not supported", c.LogFormat)
	}
	if c.LoginBackoffMin <= 0 || c.LoginBackoffMax < c.LoginBackoffMin {
		return fmt.Errorf("invalid login backoff range %s..%s", c.LoginBackoffMin, c.LoginBackoffMax)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}
	return level, nil
}
