package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/sharelink"
)

// memoryDirectory keeps principals and share links in memory.
type memoryDirectory struct {
	fakeDirectory
	index  map[string][]persistence.ShareIndexEntry
	nextID uint32
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{index: map[string][]persistence.ShareIndexEntry{}}
}

func (m *memoryDirectory) CreatePrincipal(_ context.Context, p persistence.Principal) (persistence.Principal, error) {
	for _, existing := range m.principals {
		if existing.Name == p.Name {
			return persistence.Principal{}, persistence.ErrConstraintViolation
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.principals = append(m.principals, p)
	return p, nil
}

func (m *memoryDirectory) GetPrincipalByName(_ context.Context, name string) (persistence.Principal, error) {
	for _, p := range m.principals {
		if p.Name == name {
			return p, nil
		}
	}
	return persistence.Principal{}, persistence.ErrNotFound
}

func (m *memoryDirectory) AddShareLink(_ context.Context, principalID uint32, token, lookupKey string) error {
	for i := range m.principals {
		if m.principals[i].ID == principalID {
			m.principals[i].Data = append(m.principals[i].Data, persistence.ShareLinkData{Token: token})
			m.index[lookupKey] = append(m.index[lookupKey], persistence.ShareIndexEntry{LookupKey: lookupKey, PrincipalID: principalID, Token: token})
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (m *memoryDirectory) RemoveCalendarShareLinks(_ context.Context, principalID uint32, calendarID string) (int, error) {
	removed := 0
	for i := range m.principals {
		if m.principals[i].ID != principalID {
			continue
		}
		var kept []persistence.PrincipalData
		for _, data := range m.principals[i].Data {
			if link, ok := data.(persistence.ShareLinkData); ok && strings.HasPrefix(link.Token, sharelink.Prefix+calendarID+"|") {
				removed++
				continue
			}
			kept = append(kept, data)
		}
		m.principals[i].Data = kept
	}
	return removed, nil
}

func (m *memoryDirectory) LookupShareLinks(_ context.Context, key string) ([]persistence.ShareIndexEntry, error) {
	var entries []persistence.ShareIndexEntry
	for _, entry := range m.index[key] {
		for _, p := range m.principals {
			if p.ID == entry.PrincipalID && p.Type == persistence.PrincipalIndividual {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

func cheapHash(secret string) (string, error) {
	return sharelink.HashSecret(secret, testArgonParams)
}

func TestShareLinkService_CreateResolveRevoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := newMemoryDirectory()
	_, err := NewDirectoryService(dir).CreatePrincipal(ctx, CreatePrincipalParams{Name: "alice"})
	require.NoError(t, err)

	now := time.Date(2024, time.May, 5, 12, 0, 0, 0, time.UTC)
	svc := NewShareLinkServiceWithLogger(dir, cheapHash, nil, func() time.Time { return now }, nil)

	created, err := svc.CreateShareLink(ctx, CreateShareLinkParams{PrincipalName: "alice", CalendarID: "42"})
	require.NoError(t, err)
	assert.Len(t, created.Secret, 43)
	assert.Equal(t, []string{"42", DefaultShareAccess, "1714910400"}, created.Link.Fields)

	scanner := NewPrincipalScanner(dir, nil, 0)
	target, err := scanner.Resolve(ctx, created.Secret)
	require.NoError(t, err)
	assert.Equal(t, ShareTarget{AccountID: created.Link.PrincipalID, CalendarID: "42"}, target)

	indexed, err := NewIndexedResolver(dir, nil, nil).Resolve(ctx, created.Secret)
	require.NoError(t, err)
	assert.Equal(t, target, indexed)

	links, err := svc.ListShareLinks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "42", links[0].CalendarID)
	assert.True(t, links[0].CreatedAt.Equal(now))

	removed, err := svc.RevokeCalendarShareLinks(ctx, "alice", "42")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = scanner.Resolve(ctx, created.Secret)
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestShareLinkService_CreateErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := newMemoryDirectory()
	_, err := dir.CreatePrincipal(ctx, persistence.Principal{Name: "bob", Type: persistence.PrincipalIndividual})
	require.NoError(t, err)
	_, err = dir.CreatePrincipal(ctx, persistence.Principal{Name: "ops", Type: persistence.PrincipalGroup})
	require.NoError(t, err)

	svc := NewShareLinkServiceWithLogger(dir, cheapHash, nil, nil, nil)

	tests := []struct {
		name   string
		params CreateShareLinkParams
		field  string
	}{
		{name: "missing principal", params: CreateShareLinkParams{CalendarID: "1"}, field: "principal"},
		{name: "non numeric calendar", params: CreateShareLinkParams{PrincipalName: "bob", CalendarID: "work"}, field: "calendar_id"},
		{name: "separator in access", params: CreateShareLinkParams{PrincipalName: "bob", CalendarID: "1", Access: "read|write"}, field: "access"},
		{name: "group principal", params: CreateShareLinkParams{PrincipalName: "ops", CalendarID: "1"}, field: "principal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateShareLink(ctx, tt.params)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.FieldErrors, tt.field)
		})
	}

	_, err = svc.CreateShareLink(ctx, CreateShareLinkParams{PrincipalName: "nobody", CalendarID: "1"})
	assert.ErrorIs(t, err, ErrPrincipalNotFound)

	failing := NewShareLinkServiceWithLogger(dir, func(string) (string, error) { return "", errors.New("no entropy") }, nil, nil, nil)
	_, err = failing.CreateShareLink(ctx, CreateShareLinkParams{PrincipalName: "bob", CalendarID: "1"})
	assert.ErrorContains(t, err, "hash share secret")
}

func TestShareLinkService_ListSkipsForeignData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := newMemoryDirectory()
	_, err := dir.CreatePrincipal(ctx, persistence.Principal{
		Name: "carol",
		Type: persistence.PrincipalIndividual,
		Data: []persistence.PrincipalData{
			persistence.EmailAliasData{Address: "carol@example.com"},
			persistence.ShareLinkData{Token: "$cal$5|read$hash"},
			persistence.ShareLinkData{Token: "$cal$6|read|notanumber$hash"},
		},
	})
	require.NoError(t, err)

	links, err := NewShareLinkService(dir, nil).ListShareLinks(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "6", links[0].CalendarID)
	assert.True(t, links[0].CreatedAt.IsZero())
}

func TestDirectoryService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := newMemoryDirectory()
	svc := NewDirectoryService(dir)

	p, err := svc.CreatePrincipal(ctx, CreatePrincipalParams{Name: "  dave  "})
	require.NoError(t, err)
	assert.Equal(t, "dave", p.Name)
	assert.Equal(t, persistence.PrincipalIndividual, p.Type)

	_, err = svc.CreatePrincipal(ctx, CreatePrincipalParams{Name: "room", Type: persistence.PrincipalResource})
	require.NoError(t, err)

	_, err = svc.CreatePrincipal(ctx, CreatePrincipalParams{Name: "dave"})
	assert.Equal(t, "conflict", ErrorKind(err))

	_, err = svc.CreatePrincipal(ctx, CreatePrincipalParams{Name: "x", Type: "robot"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "type")

	individuals, err := svc.ListPrincipals(ctx, persistence.PrincipalIndividual)
	require.NoError(t, err)
	require.Len(t, individuals, 1)
	assert.Equal(t, "dave", individuals[0].Name)

	everyone, err := svc.ListPrincipals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)
}
