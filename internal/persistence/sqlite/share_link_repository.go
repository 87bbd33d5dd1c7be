package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/sharelink"
)

// AddShareLink appends a share-link token to the principal's data and
// records its index row in the same transaction.
func (s *Storage) AddShareLink(ctx context.Context, principalID uint32, token, lookupKey string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(lookupKey) == "" {
		return persistence.ErrConstraintViolation
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if err := requirePrincipal(ctx, tx, principalID); err != nil {
			return err
		}
		position, err := nextPosition(ctx, tx, principalID)
		if err != nil {
			return err
		}
		if err := insertPrincipalData(ctx, tx, principalID, position, persistence.ShareLinkData{Token: token}); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO share_link_index (lookup_key, principal_id, token, created_at) VALUES (?, ?, ?, ?)",
			lookupKey, principalID, token, s.timestamp())
		return mapError(err)
	})
}

// RemoveShareLink deletes one token and its index rows. Unknown tokens yield
// persistence.ErrNotFound.
func (s *Storage) RemoveShareLink(ctx context.Context, principalID uint32, token string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		removed, err := removeTokens(ctx, tx, principalID, []string{token})
		if err != nil {
			return err
		}
		if removed == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// RemoveCalendarShareLinks deletes every token of the principal that names
// calendarID.
func (s *Storage) RemoveCalendarShareLinks(ctx context.Context, principalID uint32, calendarID string) (int, error) {
	var removed int
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT value FROM principal_data WHERE principal_id = ? AND kind = ?",
			principalID, string(persistence.DataKindShareLink))
		if err != nil {
			return mapError(err)
		}

		var matching []string
		for rows.Next() {
			var token string
			if err := rows.Scan(&token); err != nil {
				rows.Close()
				return mapError(err)
			}
			decoded, ok := sharelink.Decode(token).Get()
			if !ok {
				continue
			}
			if id, ok := decoded.CalendarID().Get(); ok && id == calendarID {
				matching = append(matching, token)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return mapError(err)
		}
		rows.Close()

		removed, err = removeTokens(ctx, tx, principalID, matching)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func removeTokens(ctx context.Context, tx *sql.Tx, principalID uint32, tokens []string) (int, error) {
	var removed int
	for _, token := range tokens {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM principal_data WHERE principal_id = ? AND kind = ? AND value = ?",
			principalID, string(persistence.DataKindShareLink), token)
		if err != nil {
			return 0, mapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		removed += int(n)

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM share_link_index WHERE principal_id = ? AND token = ?",
			principalID, token); err != nil {
			return 0, mapError(err)
		}
	}
	return removed, nil
}

// LookupShareLinks returns the index rows stored under lookupKey whose holder
// is an individual principal.
func (s *Storage) LookupShareLinks(ctx context.Context, lookupKey string) ([]persistence.ShareIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.lookup_key, i.principal_id, i.token
		FROM share_link_index i
		JOIN principals p ON p.id = i.principal_id
		WHERE i.lookup_key = ? AND p.type = ?
		ORDER BY i.principal_id, i.created_at
	`, lookupKey, string(persistence.PrincipalIndividual))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.ShareIndexEntry
	for rows.Next() {
		var (
			entry       persistence.ShareIndexEntry
			principalID int64
		)
		if err := rows.Scan(&entry.LookupKey, &principalID, &entry.Token); err != nil {
			return nil, mapError(err)
		}
		entry.PrincipalID = uint32(principalID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}
