package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/calendar-share/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// routePattern maps a request path to the route it was served by. Unknown
// paths collapse into a single label.
func routePattern(path string) string {
	switch {
	case strings.HasPrefix(path, SharePathPrefix):
		return SharePathPrefix + "{secret}"
	case path == MetricsPath:
		return MetricsPath
	default:
		return "unmatched"
	}
}
