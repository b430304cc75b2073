// Package storetest opens throwaway stores for tests.
package storetest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/riteshkumar/terminal-bank/internal/store"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open opens a migrated SQLite store in a temporary directory that is
// removed when the test ends.
func Open(t testing.TB) *store.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bank.db")
	db, err := store.Open(context.Background(), string(store.DialectSQLite), path, Logger())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
