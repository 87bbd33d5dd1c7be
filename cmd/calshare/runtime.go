package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/calendar-share/internal/config"
	"github.com/example/calendar-share/internal/logging"
	"github.com/example/calendar-share/internal/persistence/sqlite"
)

// runtime bundles the configuration, logger and migrated storage shared by
// every command.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	return newRuntime(cmd.Context(), cfg, cmd.ErrOrStderr())
}

func newRuntime(ctx context.Context, cfg config.Config, logOutput io.Writer) (*runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(logOutput, cfg.LogLevel)

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, storage: storage}, nil
}

func (r *runtime) Close() {
	if err := r.storage.Close(); err != nil {
		r.logger.Error("failed to close storage", "error", err)
	}
}
