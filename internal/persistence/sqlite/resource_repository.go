package sqlite

import (
	"context"

	"github.com/example/calendar-share/internal/persistence"
)

// ListResources returns the resources of one sync collection ordered by
// document ID.
func (s *Storage) ListResources(ctx context.Context, accountID uint32, collection persistence.SyncCollection) ([]persistence.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, document_id, collection_id, is_container, name
		FROM dav_resources
		WHERE account_id = ? AND sync_collection = ?
		ORDER BY document_id
	`, accountID, string(collection))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		var (
			resource             persistence.Resource
			account, doc, parent int64
		)
		if err := rows.Scan(&account, &doc, &parent, &resource.IsContainer, &resource.Name); err != nil {
			return nil, mapError(err)
		}
		resource.AccountID = uint32(account)
		resource.DocumentID = uint32(doc)
		resource.CollectionID = uint32(parent)
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

// PutResource inserts or replaces a resource.
func (s *Storage) PutResource(ctx context.Context, collection persistence.SyncCollection, resource persistence.Resource) error {
	if collection == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dav_resources (account_id, sync_collection, document_id, collection_id, is_container, name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, sync_collection, document_id) DO UPDATE SET
			collection_id = excluded.collection_id,
			is_container = excluded.is_container,
			name = excluded.name
	`, resource.AccountID, string(collection), resource.DocumentID, resource.CollectionID, resource.IsContainer, resource.Name)
	return mapError(err)
}

// GetArchive returns the archived record stored under key, or
// persistence.ErrNotFound.
func (s *Storage) GetArchive(ctx context.Context, key persistence.ArchiveKey) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM archives
		WHERE account_id = ? AND collection = ? AND document_id = ?
	`, key.AccountID, string(key.Collection), key.DocumentID).Scan(&data)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

// PutArchive inserts or replaces the record stored under key.
func (s *Storage) PutArchive(ctx context.Context, key persistence.ArchiveKey, data []byte) error {
	if key.Collection == "" || data == nil {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archives (account_id, collection, document_id, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id, collection, document_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, key.AccountID, string(key.Collection), key.DocumentID, data, s.timestamp())
	return mapError(err)
}
