package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/calendar-share/internal/persistence"
)

// txFunc runs inside a transaction opened by withTransaction.
type txFunc func(tx *sql.Tx) error

// withTransaction commits when fn succeeds and rolls back otherwise,
// including when fn panics.
func (s *Storage) withTransaction(ctx context.Context, fn txFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError converts driver errors into persistence sentinels where one applies.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	for _, marker := range []string{
		"UNIQUE constraint failed",
		"FOREIGN KEY constraint failed",
		"CHECK constraint failed",
		"NOT NULL constraint failed",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
		}
	}
	return err
}
