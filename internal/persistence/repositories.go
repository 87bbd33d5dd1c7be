package persistence

import "context"

// PrincipalRepository exposes directory operations.
type PrincipalRepository interface {
	CreatePrincipal(ctx context.Context, principal Principal) (Principal, error)
	GetPrincipal(ctx context.Context, id uint32) (Principal, error)
	GetPrincipalByName(ctx context.Context, name string) (Principal, error)
	ListPrincipals(ctx context.Context, filter PrincipalFilter) ([]Principal, error)
	AddPrincipalData(ctx context.Context, principalID uint32, data PrincipalData) error
}

// ShareLinkRepository maintains share-link tokens together with their index rows.
type ShareLinkRepository interface {
	AddShareLink(ctx context.Context, principalID uint32, token, lookupKey string) error
	RemoveShareLink(ctx context.Context, principalID uint32, token string) error
	// RemoveCalendarShareLinks drops every link of the principal whose token
	// names calendarID and reports how many were removed.
	RemoveCalendarShareLinks(ctx context.Context, principalID uint32, calendarID string) (int, error)
}

// ShareIndexRepository answers secret lookups without scanning the directory.
// Only links held by individual principals are returned.
type ShareIndexRepository interface {
	LookupShareLinks(ctx context.Context, lookupKey string) ([]ShareIndexEntry, error)
}

// ResourceRepository lists and stores sync collection resources.
type ResourceRepository interface {
	ListResources(ctx context.Context, accountID uint32, collection SyncCollection) ([]Resource, error)
	PutResource(ctx context.Context, collection SyncCollection, resource Resource) error
}

// ArchiveRepository stores archived binary records.
type ArchiveRepository interface {
	GetArchive(ctx context.Context, key ArchiveKey) ([]byte, error)
	PutArchive(ctx context.Context, key ArchiveKey, data []byte) error
}
