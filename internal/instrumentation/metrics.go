package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStage   = "stage"
	attrResult  = "result"
	attrReason  = "reason"
	attrOutcome = "outcome"
	attrMethod  = "method"
	attrRoute   = "route"
	attrStatus  = "status"
)

// Metrics records share resolution, feed export and HTTP measurements.
type Metrics struct {
	resolutionsTotal   metric.Int64Counter
	tokensSkippedTotal metric.Int64Counter

	exportsTotal   metric.Int64Counter
	exportDuration metric.Float64Histogram
	eventsTotal    metric.Int64Counter

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.resolutionsTotal, err = meter.Int64Counter(
		"calshare_share_resolutions_total",
		metric.WithDescription("Share secret resolutions by stage and result"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calshare_share_resolutions_total counter: %w", err)
	}

	m.tokensSkippedTotal, err = meter.Int64Counter(
		"calshare_share_tokens_skipped_total",
		metric.WithDescription("Stored share tokens skipped during resolution"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calshare_share_tokens_skipped_total counter: %w", err)
	}

	m.exportsTotal, err = meter.Int64Counter(
		"calshare_feed_exports_total",
		metric.WithDescription("Calendar feed exports by result"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calshare_feed_exports_total counter: %w", err)
	}

	m.exportDuration, err = meter.Float64Histogram(
		"calshare_feed_export_duration_seconds",
		metric.WithDescription("Calendar feed export duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calshare_feed_export_duration_seconds histogram: %w", err)
	}

	m.eventsTotal, err = meter.Int64Counter(
		"calshare_feed_events_total",
		metric.WithDescription("Calendar events processed during export by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calshare_feed_events_total counter: %w", err)
	}

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordResolution counts one resolution attempt at a resolver stage.
func (m *Metrics) RecordResolution(ctx context.Context, stage, result string) {
	if m == nil || m.resolutionsTotal == nil {
		return
	}
	m.resolutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStage, stage),
		attribute.String(attrResult, result),
	))
}

// RecordSkippedToken counts a stored token that could not be used.
func (m *Metrics) RecordSkippedToken(ctx context.Context, reason string) {
	if m == nil || m.tokensSkippedTotal == nil {
		return
	}
	m.tokensSkippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordEvent counts one event processed during an export.
func (m *Metrics) RecordEvent(ctx context.Context, outcome string) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordExport records the result and duration of one feed export.
func (m *Metrics) RecordExport(ctx context.Context, result string, duration time.Duration) {
	if m == nil || m.exportsTotal == nil || m.exportDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrResult, result))
	m.exportsTotal.Add(ctx, 1, attrs)
	m.exportDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordHTTPRequest records an HTTP request with method, route, status code, and duration.
// route must be a pattern, never a concrete path, since share paths carry secrets.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrRoute, route),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
