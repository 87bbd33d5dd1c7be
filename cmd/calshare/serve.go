package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/calendar-share/internal/application"
	httptransport "github.com/example/calendar-share/internal/http"
	"github.com/example/calendar-share/internal/instrumentation"
)

var _ application.FeedRecorder = (*instrumentation.Metrics)(nil)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve shared calendar feeds over HTTP",
		Long: `Starts the HTTP server exposing GET /calendar/share/{secret} and, when
metrics are enabled, GET /metrics.

SIGHUP drops cached share resolutions so revocations apply immediately.
SIGINT and SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		Enabled:        cfg.MetricsEnabled,
		ServiceName:    "calshare",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics", "error", err)
		}
	}()

	feed, purge := buildFeedService(rt, provider.Metrics())
	handler := buildHandler(rt, feed, provider)

	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hangup:
				purge()
				logger.Info("share resolution cache purged")
			}
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("calendar share API listening", "addr", server.Addr, "version", version)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server encountered error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// buildFeedService assembles the resolver chain: an optional resolution cache
// in front of the share index, which falls back to a directory scan. The
// returned function drops cached resolutions.
func buildFeedService(rt *runtime, recorder application.FeedRecorder) (*application.FeedService, func()) {
	cfg, logger, store := rt.cfg, rt.logger, rt.storage

	scanner := application.NewPrincipalScannerWithLogger(store, nil, cfg.PrincipalPageSize, recorder, logger)

	var resolver application.ShareResolver = scanner
	if cfg.ShareIndex {
		var fallback application.ShareResolver
		if cfg.ScanFallback {
			fallback = scanner
		}
		resolver = application.NewIndexedResolverWithLogger(store, nil, fallback, recorder, logger)
	}

	purge := func() {}
	if cfg.ResolveCacheTTL > 0 {
		cached := application.NewCachedResolver(resolver, cfg.ResolveCacheSize, cfg.ResolveCacheTTL, recorder)
		resolver = cached
		purge = cached.Purge
	}

	feed := application.NewFeedServiceWithLogger(
		resolver,
		application.NewResourceResolver(store),
		application.NewEventSerializerWithLogger(store, time.Now, recorder, logger),
		cfg.ProductID,
		time.Now,
		recorder,
		logger,
	)
	return feed, purge
}

func buildHandler(rt *runtime, feed httptransport.FeedExporter, provider *instrumentation.Provider) http.Handler {
	cfg, logger := rt.cfg, rt.logger

	var limiter *httptransport.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Feed:        httptransport.NewFeedHandler(feed, cfg.CacheMaxAge, logger),
		RateLimiter: limiter,
		Metrics:     provider.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.InstrumentRequests(provider.Metrics()),
		},
	})
}
