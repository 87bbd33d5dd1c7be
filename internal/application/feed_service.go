package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/mo"

	"github.com/example/calendar-share/internal/calendar"
	"github.com/example/calendar-share/internal/persistence"
)

// ResourceLister captures the resource listing needed to find calendar events.
type ResourceLister interface {
	ListResources(ctx context.Context, accountID uint32, collection persistence.SyncCollection) ([]persistence.Resource, error)
}

// ResourceResolver selects the event resources that belong to one calendar.
type ResourceResolver struct {
	resources ResourceLister
}

// NewResourceResolver constructs a resolver over the given resource store.
func NewResourceResolver(resources ResourceLister) *ResourceResolver {
	return &ResourceResolver{resources: resources}
}

// ListCalendarLeaves returns the non-container resources whose parent
// collection id renders to calendarID, in listing order. Nested collections
// are not followed.
func (r *ResourceResolver) ListCalendarLeaves(ctx context.Context, accountID uint32, calendarID string) ([]persistence.Resource, error) {
	if r == nil || r.resources == nil {
		return nil, fmt.Errorf("ResourceResolver is not configured")
	}

	resources, err := r.resources.ListResources(ctx, accountID, persistence.SyncCollectionCalendar)
	if err != nil {
		return nil, storageError("list calendar resources", err)
	}

	leaves := make([]persistence.Resource, 0, len(resources))
	for _, resource := range resources {
		if resource.IsContainer {
			continue
		}
		if strconv.FormatUint(uint64(resource.CollectionID), 10) != calendarID {
			continue
		}
		leaves = append(leaves, resource)
	}
	return leaves, nil
}

// ArchiveReader captures the archive lookup needed to load event records.
type ArchiveReader interface {
	GetArchive(ctx context.Context, key persistence.ArchiveKey) ([]byte, error)
}

// EventSerializer turns archived event records into VEVENT text.
type EventSerializer struct {
	archives ArchiveReader
	now      func() time.Time
	recorder FeedRecorder
	logger   *slog.Logger
}

// NewEventSerializer constructs a serializer reading from archives.
func NewEventSerializer(archives ArchiveReader, now func() time.Time) *EventSerializer {
	return NewEventSerializerWithLogger(archives, now, nil, nil)
}

// NewEventSerializerWithLogger constructs a serializer with a metrics recorder and logger.
func NewEventSerializerWithLogger(archives ArchiveReader, now func() time.Time, recorder FeedRecorder, logger *slog.Logger) *EventSerializer {
	if now == nil {
		now = time.Now
	}
	return &EventSerializer{
		archives: archives,
		now:      now,
		recorder: defaultRecorder(recorder),
		logger:   defaultLogger(logger),
	}
}

// Render loads and renders one event resource. Missing and undecodable
// records yield None; only storage failures are returned as errors.
func (s *EventSerializer) Render(ctx context.Context, accountID uint32, resource persistence.Resource) (mo.Option[string], error) {
	if s == nil || s.archives == nil {
		return mo.None[string](), fmt.Errorf("EventSerializer is not configured")
	}

	logger := serviceLogger(ctx, s.logger, "EventSerializer", "Render",
		"account_id", accountID,
		"document_id", resource.DocumentID,
	)

	data, err := s.archives.GetArchive(ctx, persistence.ArchiveKey{
		AccountID:  accountID,
		Collection: persistence.CollectionCalendarEvent,
		DocumentID: resource.DocumentID,
	})
	if errors.Is(err, persistence.ErrNotFound) {
		s.recorder.RecordEvent(ctx, SkipMissingRecord)
		logger.WarnContext(ctx, "event record missing, skipping")
		return mo.None[string](), nil
	}
	if err != nil {
		return mo.None[string](), storageError(fmt.Sprintf("fetch event archive %d/%d", accountID, resource.DocumentID), err)
	}

	event, err := calendar.DecodeArchive(data)
	if err != nil {
		s.recorder.RecordEvent(ctx, SkipUndecodable)
		logger.WarnContext(ctx, "event record undecodable, skipping", "error", err)
		return mo.None[string](), nil
	}

	event.EnsureTimestamp(s.now())
	body, err := event.ICalString()
	if err != nil {
		s.recorder.RecordEvent(ctx, SkipUndecodable)
		logger.WarnContext(ctx, "event could not be rendered, skipping", "error", err)
		return mo.None[string](), nil
	}

	s.recorder.RecordEvent(ctx, EventRendered)
	return mo.Some(body), nil
}

// LeafLister lists the event resources of a calendar.
type LeafLister interface {
	ListCalendarLeaves(ctx context.Context, accountID uint32, calendarID string) ([]persistence.Resource, error)
}

// EventRenderer renders one event resource.
type EventRenderer interface {
	Render(ctx context.Context, accountID uint32, resource persistence.Resource) (mo.Option[string], error)
}

// FeedService orchestrates secret resolution and calendar rendering.
type FeedService struct {
	resolver  ShareResolver
	leaves    LeafLister
	renderer  EventRenderer
	productID string
	now       func() time.Time
	recorder  FeedRecorder
	logger    *slog.Logger
}

// NewFeedService constructs a feed service with the provided collaborators.
func NewFeedService(resolver ShareResolver, leaves LeafLister, renderer EventRenderer, productID string) *FeedService {
	return NewFeedServiceWithLogger(resolver, leaves, renderer, productID, nil, nil, nil)
}

// NewFeedServiceWithLogger constructs a feed service with a clock, metrics recorder and logger.
func NewFeedServiceWithLogger(resolver ShareResolver, leaves LeafLister, renderer EventRenderer, productID string, now func() time.Time, recorder FeedRecorder, logger *slog.Logger) *FeedService {
	if now == nil {
		now = time.Now
	}
	if productID == "" {
		productID = calendar.DefaultProductID
	}
	return &FeedService{
		resolver:  resolver,
		leaves:    leaves,
		renderer:  renderer,
		productID: productID,
		now:       now,
		recorder:  defaultRecorder(recorder),
		logger:    defaultLogger(logger),
	}
}

func (s *FeedService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeedService", operation, attrs...)
}

// ExportSharedCalendar renders the calendar a bearer secret grants access to.
// Unknown secrets yield ErrShareNotFound unchanged.
func (s *FeedService) ExportSharedCalendar(ctx context.Context, secret string) (feed Feed, err error) {
	if s == nil || s.resolver == nil || s.leaves == nil || s.renderer == nil {
		err = fmt.Errorf("FeedService is not configured")
		return
	}

	started := s.now()
	logger := s.loggerWith(ctx, "ExportSharedCalendar")
	defer func() {
		s.recorder.RecordExport(ctx, resolutionResult(err), s.now().Sub(started))
		if err != nil {
			if errors.Is(err, ErrShareNotFound) {
				logger.InfoContext(ctx, "share link not found", "error_kind", ErrorKind(err))
				return
			}
			logger.ErrorContext(ctx, "failed to export shared calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "shared calendar exported",
			"account_id", feed.Target.AccountID,
			"calendar_id", feed.Target.CalendarID,
			"events", feed.Events,
			"skipped", feed.Skipped,
		)
	}()

	target, err := s.resolver.Resolve(ctx, secret)
	if err != nil {
		return
	}

	leaves, err := s.leaves.ListCalendarLeaves(ctx, target.AccountID, target.CalendarID)
	if err != nil {
		return
	}

	doc := calendar.NewDocument(s.productID)
	skipped := 0
	for _, leaf := range leaves {
		if err = ctx.Err(); err != nil {
			return
		}
		var body mo.Option[string]
		body, err = s.renderer.Render(ctx, target.AccountID, leaf)
		if err != nil {
			return
		}
		if text, ok := body.Get(); ok {
			doc.AppendEvent(text)
			continue
		}
		skipped++
	}

	feed = Feed{
		Target:  target,
		Body:    doc.Finish(),
		Events:  doc.Events(),
		Skipped: skipped,
	}
	return
}
