package application

import (
	"time"

	"github.com/example/calendar-share/internal/persistence"
)

// ShareTarget identifies the calendar a bearer secret grants access to.
type ShareTarget struct {
	AccountID  uint32
	CalendarID string
}

// Feed is a rendered calendar export.
type Feed struct {
	Target  ShareTarget
	Body    string
	Events  int
	Skipped int
}

// ShareLink is a stored share token of a principal with its hash elided.
type ShareLink struct {
	PrincipalID uint32
	CalendarID  string
	Fields      []string
	CreatedAt   time.Time
}

// CreateShareLinkParams wraps the data required to mint a share link.
type CreateShareLinkParams struct {
	PrincipalName string
	CalendarID    string
	Access        string
}

// CreatedShareLink carries the freshly generated secret. The secret is only
// available at creation time.
type CreatedShareLink struct {
	Link   ShareLink
	Secret string
}

// CreatePrincipalParams wraps the data required to register a principal.
type CreatePrincipalParams struct {
	Name string
	Type persistence.PrincipalType
}
