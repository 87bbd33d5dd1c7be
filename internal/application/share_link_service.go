package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/sharelink"
)

// DefaultShareAccess is the access field written into new share tokens.
const DefaultShareAccess = "read"

// ErrPrincipalNotFound is returned when the named principal does not exist.
var ErrPrincipalNotFound = errors.New("application: principal not found")

// ShareLinkStore captures the persistence operations needed to manage share links.
type ShareLinkStore interface {
	GetPrincipalByName(ctx context.Context, name string) (persistence.Principal, error)
	AddShareLink(ctx context.Context, principalID uint32, token, lookupKey string) error
	RemoveCalendarShareLinks(ctx context.Context, principalID uint32, calendarID string) (int, error)
}

// ShareLinkService mints, lists and revokes calendar share links.
type ShareLinkService struct {
	store    ShareLinkStore
	hash     func(secret string) (string, error)
	generate func() (string, error)
	now      func() time.Time
	logger   *slog.Logger
}

// NewShareLinkService constructs a share link service using argon2id hashing.
func NewShareLinkService(store ShareLinkStore, now func() time.Time) *ShareLinkService {
	return NewShareLinkServiceWithLogger(store, nil, nil, now, nil)
}

// NewShareLinkServiceWithLogger constructs a share link service with explicit
// secret hashing, secret generation, clock and logger.
func NewShareLinkServiceWithLogger(store ShareLinkStore, hash func(string) (string, error), generate func() (string, error), now func() time.Time, logger *slog.Logger) *ShareLinkService {
	if hash == nil {
		hash = func(secret string) (string, error) {
			return sharelink.HashSecret(secret, sharelink.DefaultArgon2idParams)
		}
	}
	if generate == nil {
		generate = sharelink.GenerateSecret
	}
	if now == nil {
		now = time.Now
	}
	return &ShareLinkService{
		store:    store,
		hash:     hash,
		generate: generate,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *ShareLinkService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ShareLinkService", operation, attrs...)
}

// CreateShareLink generates a secret for the principal's calendar and stores
// its token. The returned secret is not recoverable afterwards.
func (s *ShareLinkService) CreateShareLink(ctx context.Context, params CreateShareLinkParams) (created CreatedShareLink, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("ShareLinkService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateShareLink",
		"principal", params.PrincipalName,
		"calendar_id", params.CalendarID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create share link", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "share link created", "principal_id", created.Link.PrincipalID)
	}()

	params.PrincipalName = strings.TrimSpace(params.PrincipalName)
	params.CalendarID = strings.TrimSpace(params.CalendarID)
	params.Access = strings.TrimSpace(params.Access)
	if params.Access == "" {
		params.Access = DefaultShareAccess
	}
	if vErr := validateShareLinkParams(params); vErr.HasErrors() {
		err = vErr
		return
	}

	principal, err := s.lookupPrincipal(ctx, params.PrincipalName)
	if err != nil {
		return
	}
	if principal.Type != persistence.PrincipalIndividual {
		vErr := &ValidationError{}
		vErr.add("principal", "share links can only be created for individual principals")
		err = vErr
		return
	}

	secret, err := s.generate()
	if err != nil {
		err = fmt.Errorf("generate share secret: %w", err)
		return
	}
	hash, err := s.hash(secret)
	if err != nil {
		err = fmt.Errorf("hash share secret: %w", err)
		return
	}

	createdAt := s.now().UTC().Truncate(time.Second)
	fields := []string{params.Access, strconv.FormatInt(createdAt.Unix(), 10)}
	token := sharelink.Encode(params.CalendarID, fields, hash)

	if err = s.store.AddShareLink(ctx, principal.ID, token, sharelink.LookupKey(secret)); err != nil {
		err = storageError("add share link", err)
		return
	}

	created = CreatedShareLink{
		Link: ShareLink{
			PrincipalID: principal.ID,
			CalendarID:  params.CalendarID,
			Fields:      append([]string{params.CalendarID}, fields...),
			CreatedAt:   createdAt,
		},
		Secret: secret,
	}
	return
}

// ListShareLinks returns the well-formed share links held by a principal in
// stored order.
func (s *ShareLinkService) ListShareLinks(ctx context.Context, principalName string) ([]ShareLink, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("ShareLinkService is not configured")
	}

	principal, err := s.lookupPrincipal(ctx, strings.TrimSpace(principalName))
	if err != nil {
		return nil, err
	}

	var links []ShareLink
	for _, data := range principal.Data {
		entry, ok := data.(persistence.ShareLinkData)
		if !ok {
			continue
		}
		token, ok := sharelink.Decode(entry.Token).Get()
		if !ok {
			continue
		}
		calendarID, ok := token.CalendarID().Get()
		if !ok {
			continue
		}

		link := ShareLink{PrincipalID: principal.ID, CalendarID: calendarID, Fields: token.Fields()}
		if unix, err := strconv.ParseInt(link.Fields[2], 10, 64); err == nil {
			link.CreatedAt = time.Unix(unix, 0).UTC()
		}
		links = append(links, link)
	}
	return links, nil
}

// RevokeCalendarShareLinks removes every share link of the principal that
// grants access to calendarID and reports how many were removed.
func (s *ShareLinkService) RevokeCalendarShareLinks(ctx context.Context, principalName, calendarID string) (removed int, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("ShareLinkService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "RevokeCalendarShareLinks", "principal", principalName, "calendar_id", calendarID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke share links", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "share links revoked", "removed", removed)
	}()

	principal, err := s.lookupPrincipal(ctx, strings.TrimSpace(principalName))
	if err != nil {
		return
	}

	removed, err = s.store.RemoveCalendarShareLinks(ctx, principal.ID, strings.TrimSpace(calendarID))
	if err != nil {
		err = storageError("remove share links", err)
	}
	return
}

func (s *ShareLinkService) lookupPrincipal(ctx context.Context, name string) (persistence.Principal, error) {
	principal, err := s.store.GetPrincipalByName(ctx, name)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Principal{}, ErrPrincipalNotFound
	}
	if err != nil {
		return persistence.Principal{}, storageError("get principal", err)
	}
	return principal, nil
}

func validateShareLinkParams(params CreateShareLinkParams) *ValidationError {
	vErr := &ValidationError{}
	if params.PrincipalName == "" {
		vErr.add("principal", "principal is required")
	}
	if _, err := strconv.ParseUint(params.CalendarID, 10, 32); err != nil {
		vErr.add("calendar_id", "calendar id must be a collection number")
	}
	if strings.ContainsAny(params.Access, "|$") {
		vErr.add("access", "access must not contain '|' or '$'")
	}
	return vErr
}
