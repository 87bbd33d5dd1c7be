package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/calendar-share/internal/persistence"
)

// CreatePrincipal inserts a principal together with its data entries.
func (s *Storage) CreatePrincipal(ctx context.Context, principal persistence.Principal) (persistence.Principal, error) {
	name := strings.TrimSpace(principal.Name)
	if name == "" || principal.Type == "" {
		return persistence.Principal{}, persistence.ErrConstraintViolation
	}

	principal.Name = name
	principal.CreatedAt = s.now().UTC().Truncate(time.Second)

	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO principals (name, type, created_at) VALUES (?, ?, ?)",
			principal.Name, string(principal.Type), principal.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return mapError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		principal.ID = uint32(id)

		for position, data := range principal.Data {
			if err := insertPrincipalData(ctx, tx, principal.ID, position, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistence.Principal{}, err
	}
	return principal, nil
}

// GetPrincipal fetches a principal and its data by ID.
func (s *Storage) GetPrincipal(ctx context.Context, id uint32) (persistence.Principal, error) {
	return s.getPrincipal(ctx, "SELECT id, name, type, created_at FROM principals WHERE id = ?", id)
}

// GetPrincipalByName fetches a principal and its data by its unique name.
func (s *Storage) GetPrincipalByName(ctx context.Context, name string) (persistence.Principal, error) {
	return s.getPrincipal(ctx, "SELECT id, name, type, created_at FROM principals WHERE name = ?", strings.TrimSpace(name))
}

func (s *Storage) getPrincipal(ctx context.Context, query string, arg any) (persistence.Principal, error) {
	principal, err := scanPrincipal(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return persistence.Principal{}, mapError(err)
	}

	data, err := s.loadPrincipalData(ctx, []uint32{principal.ID})
	if err != nil {
		return persistence.Principal{}, err
	}
	principal.Data = data[principal.ID]
	return principal, nil
}

// ListPrincipals returns principals ordered by ID. A positive filter.Limit
// bounds the page; filter.AfterID continues after the last ID of the
// previous page.
func (s *Storage) ListPrincipals(ctx context.Context, filter persistence.PrincipalFilter) ([]persistence.Principal, error) {
	var (
		clauses = []string{"id > ?"}
		args    = []any{filter.AfterID}
	)
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}

	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		"SELECT id, name, type, created_at FROM principals WHERE %s ORDER BY id LIMIT ?",
		strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var (
		principals []persistence.Principal
		ids        []uint32
	)
	for rows.Next() {
		principal, err := scanPrincipal(rows)
		if err != nil {
			return nil, mapError(err)
		}
		principals = append(principals, principal)
		ids = append(ids, principal.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if len(principals) == 0 {
		return nil, nil
	}

	data, err := s.loadPrincipalData(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range principals {
		principals[i].Data = data[principals[i].ID]
	}
	return principals, nil
}

// AddPrincipalData appends an entry to the principal's data list. Share
// links must go through AddShareLink so the index stays in step.
func (s *Storage) AddPrincipalData(ctx context.Context, principalID uint32, data persistence.PrincipalData) error {
	if data == nil {
		return persistence.ErrConstraintViolation
	}
	if _, ok := data.(persistence.ShareLinkData); ok {
		return fmt.Errorf("%w: share links require a lookup key", persistence.ErrConstraintViolation)
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if err := requirePrincipal(ctx, tx, principalID); err != nil {
			return err
		}
		position, err := nextPosition(ctx, tx, principalID)
		if err != nil {
			return err
		}
		return insertPrincipalData(ctx, tx, principalID, position, data)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (persistence.Principal, error) {
	var (
		principal persistence.Principal
		id        int64
		kind      string
		createdAt string
	)
	if err := row.Scan(&id, &principal.Name, &kind, &createdAt); err != nil {
		return persistence.Principal{}, err
	}
	principal.ID = uint32(id)
	principal.Type = persistence.PrincipalType(kind)

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return persistence.Principal{}, fmt.Errorf("parse created_at for principal %d: %w", id, err)
	}
	principal.CreatedAt = parsed
	return principal, nil
}

// loadPrincipalData fetches the data lists of several principals in one
// query, keeping each list in insertion order.
func (s *Storage) loadPrincipalData(ctx context.Context, ids []uint32) (map[uint32][]persistence.PrincipalData, error) {
	result := make(map[uint32][]persistence.PrincipalData, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT principal_id, kind, label, value
		FROM principal_data
		WHERE principal_id IN (%s)
		ORDER BY principal_id, position
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			principalID        int64
			kind, label, value string
		)
		if err := rows.Scan(&principalID, &kind, &label, &value); err != nil {
			return nil, mapError(err)
		}
		id := uint32(principalID)
		result[id] = append(result[id], decodePrincipalData(persistence.PrincipalDataKind(kind), label, value))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func decodePrincipalData(kind persistence.PrincipalDataKind, label, value string) persistence.PrincipalData {
	switch kind {
	case persistence.DataKindShareLink:
		return persistence.ShareLinkData{Token: value}
	case persistence.DataKindEmailAlias:
		return persistence.EmailAliasData{Address: value}
	case persistence.DataKindAppPassword:
		return persistence.AppPasswordData{Name: label, Hash: value}
	default:
		return persistence.OpaqueData{RawKind: kind, Value: value}
	}
}

func encodePrincipalData(data persistence.PrincipalData) (label, value string) {
	switch d := data.(type) {
	case persistence.ShareLinkData:
		return "", d.Token
	case persistence.EmailAliasData:
		return "", d.Address
	case persistence.AppPasswordData:
		return d.Name, d.Hash
	case persistence.OpaqueData:
		return "", d.Value
	default:
		return "", ""
	}
}

func insertPrincipalData(ctx context.Context, tx *sql.Tx, principalID uint32, position int, data persistence.PrincipalData) error {
	if data == nil || data.Kind() == "" {
		return persistence.ErrConstraintViolation
	}
	label, value := encodePrincipalData(data)
	_, err := tx.ExecContext(ctx,
		"INSERT INTO principal_data (principal_id, position, kind, label, value) VALUES (?, ?, ?, ?, ?)",
		principalID, position, string(data.Kind()), label, value)
	return mapError(err)
}

func nextPosition(ctx context.Context, tx *sql.Tx, principalID uint32) (int, error) {
	var position int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM principal_data WHERE principal_id = ?",
		principalID).Scan(&position)
	if err != nil {
		return 0, mapError(err)
	}
	return position, nil
}

func requirePrincipal(ctx context.Context, tx *sql.Tx, principalID uint32) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM principals WHERE id = ?", principalID).Scan(&exists)
	return mapError(err)
}
