package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-share/internal/calendar"
	"github.com/example/calendar-share/internal/persistence"
)

var eventCounter uint64

var referenceTime = time.Date(2024, time.April, 1, 8, 30, 0, 0, time.UTC)

// eventNamespace seeds deterministic event UIDs.
var eventNamespace = uuid.MustParse("6f1c7e52-3a8d-4f0b-9f0e-2b7b1c5d9a10")

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// NewPrincipalFixture returns an individual principal ready to be stored.
func NewPrincipalFixture(name string, data ...persistence.PrincipalData) persistence.Principal {
	return persistence.Principal{
		Name: name,
		Type: persistence.PrincipalIndividual,
		Data: data,
	}
}

// EventFixture describes a deterministic VEVENT.
type EventFixture struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns an hour-long event with a stable UID derived from a
// package counter.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)
	fixture := EventFixture{
		UID:     uuid.NewSHA1(eventNamespace, []byte(fmt.Sprintf("event-%d", idx))).String(),
		Summary: fmt.Sprintf("Event %03d", idx),
		Start:   start,
		End:     start.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventUID overrides the generated UID.
func WithEventUID(uid string) EventOption {
	return func(f *EventFixture) {
		f.UID = uid
	}
}

// WithEventSummary overrides the generated summary.
func WithEventSummary(summary string) EventOption {
	return func(f *EventFixture) {
		f.Summary = summary
	}
}

// WithEventTime sets the start and duration of the event.
func WithEventTime(start time.Time, duration time.Duration) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = start.Add(duration)
	}
}

// Event builds the calendar event.
func (f EventFixture) Event() *calendar.Event {
	return calendar.NewEvent(f.UID, f.Summary, f.Start, f.End)
}

// Archive encodes the event as an archived record.
func (f EventFixture) Archive() ([]byte, error) {
	return calendar.EncodeArchive(f.Event())
}

// CalendarStore is the subset of storage needed to seed calendars.
type CalendarStore interface {
	persistence.ResourceRepository
	persistence.ArchiveRepository
}

// SeedCalendar stores a calendar container for accountID and one leaf with an
// archived record per event. Leaf document ids are calendarID*1000+n.
func SeedCalendar(ctx context.Context, store CalendarStore, accountID, calendarID uint32, events ...EventFixture) ([]persistence.Resource, error) {
	container := persistence.Resource{
		AccountID:   accountID,
		DocumentID:  calendarID,
		IsContainer: true,
		Name:        fmt.Sprintf("calendar-%d", calendarID),
	}
	if err := store.PutResource(ctx, persistence.SyncCollectionCalendar, container); err != nil {
		return nil, fmt.Errorf("seed calendar %d: %w", calendarID, err)
	}

	leaves := make([]persistence.Resource, 0, len(events))
	for i, fixture := range events {
		leaf := persistence.Resource{
			AccountID:    accountID,
			DocumentID:   calendarID*1000 + uint32(i) + 1,
			CollectionID: calendarID,
			Name:         fixture.UID + ".ics",
		}
		if err := store.PutResource(ctx, persistence.SyncCollectionCalendar, leaf); err != nil {
			return nil, fmt.Errorf("seed event resource %d: %w", leaf.DocumentID, err)
		}

		data, err := fixture.Archive()
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", fixture.UID, err)
		}
		key := persistence.ArchiveKey{AccountID: accountID, Collection: persistence.CollectionCalendarEvent, DocumentID: leaf.DocumentID}
		if err := store.PutArchive(ctx, key, data); err != nil {
			return nil, fmt.Errorf("seed event archive %d: %w", leaf.DocumentID, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}
