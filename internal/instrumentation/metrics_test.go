package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	provider, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "calshare-test",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.Nil(t, provider.Handler())
	require.NotNil(t, provider.Metrics())
	assert.NoError(t, provider.Shutdown(context.Background()))

	// a disabled recorder must accept every call
	ctx := context.Background()
	m := provider.Metrics()
	m.RecordResolution(ctx, "scan", "success")
	m.RecordSkippedToken(ctx, "malformed_meta")
	m.RecordEvent(ctx, "rendered")
	m.RecordExport(ctx, "success", time.Millisecond)
	m.RecordHTTPRequest(ctx, http.MethodGet, "/calendar/share/{secret}", 200, time.Millisecond)
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordResolution(context.Background(), "cache", "hit")
		m.RecordExport(context.Background(), "error", time.Second)
	})
}

func TestMetrics_ExportedThroughHandler(t *testing.T) {
	provider := newTestProvider(t)
	require.True(t, provider.Enabled())

	ctx := context.Background()
	m := provider.Metrics()
	m.RecordResolution(ctx, "index", "hit")
	m.RecordResolution(ctx, "scan", "not_found")
	m.RecordSkippedToken(ctx, "verification_failed")
	m.RecordEvent(ctx, "rendered")
	m.RecordEvent(ctx, "missing_record")
	m.RecordExport(ctx, "success", 20*time.Millisecond)
	m.RecordHTTPRequest(ctx, http.MethodGet, "/calendar/share/{secret}", http.StatusOK, 25*time.Millisecond)

	handler := provider.Handler()
	require.NotNil(t, handler)
	body := scrape(t, handler)

	for _, want := range []string{
		"calshare_share_resolutions",
		`stage="index"`,
		`result="not_found"`,
		"calshare_share_tokens_skipped",
		`reason="verification_failed"`,
		"calshare_feed_events",
		`outcome="missing_record"`,
		"calshare_feed_exports",
		"calshare_feed_export_duration_seconds",
		"http_requests",
		`route="/calendar/share/{secret}"`,
		"go_goroutines",
	} {
		assert.Contains(t, body, want)
	}
}
