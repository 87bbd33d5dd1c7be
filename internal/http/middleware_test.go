package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/calendar-share/internal/application"
	"github.com/example/calendar-share/internal/logging"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeHTTPRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method: method, route: route, status: status})
}

func TestRequestLogger_AttachesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logging.New(&buf, 0)

	var sawLogger bool
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logging.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/share/topsecret", nil))

	assert.True(t, sawLogger)
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"route":"/calendar/share/{secret}"`)
	assert.Contains(t, logs, `"status":418`)
	assert.NotContains(t, logs, "topsecret")
}

func TestInstrumentRequests_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	recorder := &fakeHTTPRecorder{}
	router := NewRouter(RouterConfig{
		Feed:       NewFeedHandler(&fakeExporter{err: application.ErrShareNotFound}, 0, nil),
		Middleware: []func(http.Handler) http.Handler{InstrumentRequests(recorder)},
	})

	serve(router, http.MethodGet, "/calendar/share/topsecret", nil)
	serve(router, http.MethodGet, "/elsewhere", nil)

	require.Len(t, recorder.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, route: "/calendar/share/{secret}", status: http.StatusNotFound}, recorder.requests[0])
	assert.Equal(t, "unmatched", recorder.requests[1].route)
}

func TestInstrumentRequests_NilRecorder(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	InstrumentRequests(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit_PerClient(t *testing.T) {
	t.Parallel()

	exporter := &fakeExporter{feed: application.Feed{Body: sampleBody}}
	router := NewRouter(RouterConfig{
		Feed:        NewFeedHandler(exporter, 0, nil),
		RateLimiter: NewRateLimiter(0.001, 1),
	})

	request := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/calendar/share/abc", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, request("192.0.2.1:1000").Code)

	limited := request("192.0.2.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, request("192.0.2.2:1000").Code)
	assert.Len(t, exporter.secrets, 2)
}

func TestClientAddress(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientAddress(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", clientAddress(req))
}
