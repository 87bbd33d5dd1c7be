package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/persistence/sqlite/migrations"
)

var (
	_ persistence.PrincipalRepository  = (*Storage)(nil)
	_ persistence.ShareLinkRepository  = (*Storage)(nil)
	_ persistence.ShareIndexRepository = (*Storage)(nil)
	_ persistence.ResourceRepository   = (*Storage)(nil)
	_ persistence.ArchiveRepository    = (*Storage)(nil)
)

// Storage implements the persistence repositories on top of SQLite.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database described by dsn. Foreign keys and a busy
// timeout are enabled unless the DSN already sets pragmas.
func Open(dsn string) (*Storage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every embedded migration that has not been recorded in
// schema_migrations yet.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.migrate(ctx, migrations.FS)
}

func (s *Storage) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("sqlite: read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("sqlite: read migration %s: %w", name, err)
		}

		err = s.withTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				version, s.timestamp())
			return err
		})
		if err != nil {
			return fmt.Errorf("sqlite: apply migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, mapError(err)
	}
	return version, nil
}

func (s *Storage) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
