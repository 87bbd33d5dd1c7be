// Package instrumentation provides OpenTelemetry metrics for the calendar
// share service, exported in Prometheus text format.
//
// # Metrics
//
// Share resolution:
//   - calshare_share_resolutions_total: resolutions by stage (cache, index, scan) and result
//   - calshare_share_tokens_skipped_total: stored tokens skipped during resolution by reason
//
// Feed export:
//   - calshare_feed_exports_total: exports by result (success, not_found, error)
//   - calshare_feed_export_duration_seconds: histogram of export durations
//   - calshare_feed_events_total: events by outcome (rendered, missing_record, undecodable)
//
// HTTP:
//   - http_requests_total: requests by method, route and status
//   - http_request_duration_seconds: histogram of request durations
//
// A zero Metrics value records nothing, so callers never need nil checks
// when instrumentation is disabled.
package instrumentation
