package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/sharelink"
)

// ShareIndex answers secret lookups by lookup key.
type ShareIndex interface {
	LookupShareLinks(ctx context.Context, lookupKey string) ([]persistence.ShareIndexEntry, error)
}

// IndexedResolver resolves secrets through the share link index and, when a
// fallback is configured, through a full scan on an index miss.
type IndexedResolver struct {
	index    ShareIndex
	verify   SecretVerifier
	fallback ShareResolver
	recorder FeedRecorder
	logger   *slog.Logger
}

// NewIndexedResolver constructs an index-backed resolver. fallback may be nil.
func NewIndexedResolver(index ShareIndex, verify SecretVerifier, fallback ShareResolver) *IndexedResolver {
	return NewIndexedResolverWithLogger(index, verify, fallback, nil, nil)
}

// NewIndexedResolverWithLogger constructs an index-backed resolver with a metrics recorder and logger.
func NewIndexedResolverWithLogger(index ShareIndex, verify SecretVerifier, fallback ShareResolver, recorder FeedRecorder, logger *slog.Logger) *IndexedResolver {
	if verify == nil {
		verify = sharelink.VerifySecret
	}
	return &IndexedResolver{
		index:    index,
		verify:   verify,
		fallback: fallback,
		recorder: defaultRecorder(recorder),
		logger:   defaultLogger(logger),
	}
}

// Resolve implements ShareResolver.
func (r *IndexedResolver) Resolve(ctx context.Context, secret string) (ShareTarget, error) {
	if r == nil || r.index == nil {
		return ShareTarget{}, fmt.Errorf("IndexedResolver is not configured")
	}

	logger := serviceLogger(ctx, r.logger, "IndexedResolver", "Resolve")

	entries, err := r.index.LookupShareLinks(ctx, sharelink.LookupKey(secret))
	if err != nil {
		r.recorder.RecordResolution(ctx, StageIndex, ResultError)
		err = storageError("lookup share index", err)
		logger.ErrorContext(ctx, "share index lookup failed", "error", err, "error_kind", ErrorKind(err))
		return ShareTarget{}, err
	}

	for _, entry := range entries {
		calendarID, reason := matchToken(r.verify, entry.Token, secret)
		if reason != "" {
			r.recorder.RecordSkippedToken(ctx, reason)
			logger.DebugContext(ctx, "indexed share token skipped", "principal_id", entry.PrincipalID, "reason", reason)
			continue
		}
		r.recorder.RecordResolution(ctx, StageIndex, ResultHit)
		return ShareTarget{AccountID: entry.PrincipalID, CalendarID: calendarID}, nil
	}

	r.recorder.RecordResolution(ctx, StageIndex, ResultMiss)
	if r.fallback == nil {
		return ShareTarget{}, ErrShareNotFound
	}

	logger.DebugContext(ctx, "share index miss, scanning directory", "candidates", len(entries))
	target, err := r.fallback.Resolve(ctx, secret)
	if err == nil {
		logger.InfoContext(ctx, "share link resolved outside the index",
			"account_id", target.AccountID,
			"calendar_id", target.CalendarID,
		)
	}
	return target, err
}
