// Package http exposes the calendar share feed over HTTP.
//
// The router exposes the following endpoints:
//   - GET /calendar/share/{secret}: renders the shared calendar as an
//     iCalendar document. An optional ".ics" suffix on the secret is ignored.
//     Responses carry an ETag and, when configured, a private Cache-Control
//     max-age. A matching If-None-Match yields 304 Not Modified.
//   - HEAD /calendar/share/{secret}: same headers as GET without a body.
//   - GET /metrics: Prometheus text exposition, mounted only when metrics
//     are enabled.
//
// Every share-link failure that stems from the secret itself answers 404 with
// the same JSON body, so callers cannot tell an unknown secret from a revoked
// or malformed one. Storage failures answer 500.
//
// Share paths carry bearer secrets. Logs and metrics only ever see the route
// pattern, never the concrete path.
package http
