package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/calendar-share/internal/application"
	"github.com/example/calendar-share/internal/calendar"
)

// Pipeline wires the share services over a SQLiteHarness the same way the
// server does, with a deterministic clock and secrets.
type Pipeline struct {
	Harness   *SQLiteHarness
	Clock     *Clock
	Secrets   *SecretSequence
	Directory *application.DirectoryService
	Links     *application.ShareLinkService
	Feed      *application.FeedService
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	clock     *Clock
	recorder  application.FeedRecorder
	logger    *slog.Logger
	productID string
	pageSize  int
}

// WithClock overrides the clock used by the pipeline.
func WithClock(clock *Clock) PipelineOption {
	return func(cfg *pipelineConfig) {
		cfg.clock = clock
	}
}

// WithRecorder routes service metrics to recorder.
func WithRecorder(recorder application.FeedRecorder) PipelineOption {
	return func(cfg *pipelineConfig) {
		cfg.recorder = recorder
	}
}

// WithPageSize sets the principal scan page size.
func WithPageSize(size int) PipelineOption {
	return func(cfg *pipelineConfig) {
		cfg.pageSize = size
	}
}

// NewPipeline builds an indexed resolver with scan fallback, the feed service
// and the link management services on a fresh database.
func NewPipeline(tb testing.TB, opts ...PipelineOption) *Pipeline {
	tb.Helper()

	cfg := pipelineConfig{
		clock:     NewClock(time.Time{}),
		productID: calendar.DefaultProductID,
		pageSize:  application.DefaultPrincipalPageSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	harness := NewSQLiteHarness(tb)
	store := harness.Storage
	secrets := NewSecretSequence("")

	scanner := application.NewPrincipalScannerWithLogger(store, nil, cfg.pageSize, cfg.recorder, cfg.logger)
	resolver := application.NewIndexedResolverWithLogger(store, nil, scanner, cfg.recorder, cfg.logger)
	serializer := application.NewEventSerializerWithLogger(store, cfg.clock.NowFunc(), cfg.recorder, cfg.logger)

	return &Pipeline{
		Harness:   harness,
		Clock:     cfg.clock,
		Secrets:   secrets,
		Directory: application.NewDirectoryServiceWithLogger(store, cfg.logger),
		Links:     application.NewShareLinkServiceWithLogger(store, HashSecret, secrets.Next, cfg.clock.NowFunc(), cfg.logger),
		Feed: application.NewFeedServiceWithLogger(
			resolver,
			application.NewResourceResolver(store),
			serializer,
			cfg.productID,
			cfg.clock.NowFunc(),
			cfg.recorder,
			cfg.logger,
		),
	}
}
