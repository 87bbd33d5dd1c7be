package application

import (
	"context"
	"time"
)

// Resolution stages reported to a FeedRecorder.
const (
	StageCache = "cache"
	StageIndex = "index"
	StageScan  = "scan"
)

// Outcome labels reported to a FeedRecorder.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultError    = "error"
	ResultSuccess  = "success"
	ResultNotFound = "not_found"

	SkipMissingRecord    = "missing_record"
	SkipUndecodable      = "undecodable"
	SkipMalformedToken   = "malformed_token"
	SkipMalformedMeta    = "malformed_meta"
	SkipVerificationFail = "verification_failed"

	EventRendered = "rendered"
)

// FeedRecorder receives share resolution and export measurements.
type FeedRecorder interface {
	RecordResolution(ctx context.Context, stage, result string)
	RecordSkippedToken(ctx context.Context, reason string)
	RecordEvent(ctx context.Context, outcome string)
	RecordExport(ctx context.Context, result string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordResolution(context.Context, string, string)    {}
func (noopRecorder) RecordSkippedToken(context.Context, string)          {}
func (noopRecorder) RecordEvent(context.Context, string)                 {}
func (noopRecorder) RecordExport(context.Context, string, time.Duration) {}

func defaultRecorder(recorder FeedRecorder) FeedRecorder {
	if recorder != nil {
		return recorder
	}
	return noopRecorder{}
}
