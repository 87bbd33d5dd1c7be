package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/calendar-share/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated storage backed by a temporary SQLite file
// for integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a temporary database. Close is
// registered with tb, so calling it is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "calshare.db")

	storage, err := sqlite.Open("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
