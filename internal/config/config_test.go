package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.DBDSN != "database/bank.db" {
		t.Errorf("DBDSN = %q, want %q", cfg.DBDSN, "database/bank.db")
	}
	if cfg.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:8080")
	}
	if cfg.LoginBackoffMin != 500*time.Millisecond {
		t.Errorf("LoginBackoffMin = %s, want 500ms", cfg.LoginBackoffMin)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BANK_DB_DRIVER", "postgres")
	t.Setenv("BANK_DB_DSN", "postgres://bank@localhost/bank?sslmode=disable")
	t.Setenv("BANK_LOG_LEVEL", "debug")
	t.Setenv("BANK_LOGIN_BACKOFF_MAX", "2s")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBDriver != DriverPostgres {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverPostgres)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v, want %v", level, err, slog.LevelDebug)
	}
	if cfg.LoginBackoffMax != 2*time.Second {
		t.Errorf("LoginBackoffMax = %s, want 2s", cfg.LoginBackoffMax)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BANK_DB_DSN=from-file.db\nBANK_LOG_FORMAT=text\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("BANK_DB_DSN")
		os.Unsetenv("BANK_LOG_FORMAT")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DBDSN != "from-file.db" {
		t.Errorf("DBDSN = %q, want %q", cfg.DBDSN, "from-file.db")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unsupported driver", "BANK_DB_DRIVER", "mysql"},
		{"bad log level", "BANK_LOG_LEVEL", "loud"},
		{"bad log format", "BANK_LOG_FORMAT", "xml"},
		{"inverted backoff", "BANK_LOGIN_BACKOFF_MAX", "1ms"},
		{"unparsable duration", "BANK_LOGIN_BACKOFF_MIN", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(noEnvFile(t)); err == nil {
				t.Errorf("Load() with %s=%s expected error, got nil", tt.key, tt.value)
			}
		})
	}
}
