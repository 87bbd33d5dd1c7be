package persistence

import "time"

// PrincipalType classifies directory entries.
type PrincipalType string

const (
	PrincipalIndividual PrincipalType = "individual"
	PrincipalGroup      PrincipalType = "group"
	PrincipalResource   PrincipalType = "resource"
)

// Principal represents a directory entry that owns an account.
type Principal struct {
	ID        uint32
	Name      string
	Type      PrincipalType
	Data      []PrincipalData
	CreatedAt time.Time
}

// PrincipalDataKind is the stored discriminator of a PrincipalData variant.
type PrincipalDataKind string

const (
	DataKindShareLink   PrincipalDataKind = "calendar_share_link"
	DataKindEmailAlias  PrincipalDataKind = "email_alias"
	DataKindAppPassword PrincipalDataKind = "app_password"
)

// PrincipalData is one entry of a principal's data list. The set of
// implementations is closed: ShareLinkData, EmailAliasData, AppPasswordData
// and OpaqueData.
type PrincipalData interface {
	Kind() PrincipalDataKind
	isPrincipalData()
}

// ShareLinkData holds a calendar share token of the form $cal$<meta>$<hash>.
type ShareLinkData struct {
	Token string
}

func (ShareLinkData) Kind() PrincipalDataKind { return DataKindShareLink }
func (ShareLinkData) isPrincipalData()        {}

// EmailAliasData is an additional address routed to the principal.
type EmailAliasData struct {
	Address string
}

func (EmailAliasData) Kind() PrincipalDataKind { return DataKindEmailAlias }
func (EmailAliasData) isPrincipalData()        {}

// AppPasswordData is a named application password hash.
type AppPasswordData struct {
	Name string
	Hash string
}

func (AppPasswordData) Kind() PrincipalDataKind { return DataKindAppPassword }
func (AppPasswordData) isPrincipalData()        {}

// OpaqueData preserves entries whose kind this service does not interpret.
type OpaqueData struct {
	RawKind PrincipalDataKind
	Value   string
}

func (d OpaqueData) Kind() PrincipalDataKind { return d.RawKind }
func (OpaqueData) isPrincipalData()          {}

// PrincipalFilter narrows principal listings. A zero Limit returns every
// matching principal; otherwise results are keyset-paginated by ID.
type PrincipalFilter struct {
	Type    PrincipalType
	AfterID uint32
	Limit   int
}

// SyncCollection names a resource namespace inside an account.
type SyncCollection string

const (
	SyncCollectionCalendar SyncCollection = "calendar"
)

// Collection names an archive namespace inside an account.
type Collection string

const (
	CollectionCalendar      Collection = "calendar"
	CollectionCalendarEvent Collection = "calendar_event"
)

// Resource is an entry of an account's sync collection. Containers are
// calendars; leaves are events that point at their calendar via CollectionID.
type Resource struct {
	AccountID    uint32
	DocumentID   uint32
	CollectionID uint32
	IsContainer  bool
	Name         string
}

// ArchiveKey addresses an archived record.
type ArchiveKey struct {
	AccountID  uint32
	Collection Collection
	DocumentID uint32
}

// ShareIndexEntry maps a secret lookup key to the principal holding the token.
type ShareIndexEntry struct {
	LookupKey   string
	PrincipalID uint32
	Token       string
}
