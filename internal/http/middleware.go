package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-share/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// HTTPRecorder receives one measurement per served request.
type HTTPRecorder interface {
	RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestLogger attaches a request-scoped logger carrying a fresh request id.
// The path is logged as its route pattern.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"route", routePattern(r.URL.Path),
			)
			w.Header().Set(requestIDHeader, id)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			rec := newStatusRecorder(w)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

// InstrumentRequests reports every request to recorder, labelled by route
// pattern.
func InstrumentRequests(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)
			recorder.RecordHTTPRequest(r.Context(), r.Method, routePattern(r.URL.Path), rec.status, time.Since(start))
		})
	}
}
