package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/calendar-share/internal/logging"
	"github.com/example/calendar-share/internal/persistence"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrShareNotFound), errors.Is(err, ErrPrincipalNotFound), errors.Is(err, persistence.ErrNotFound):
		return "not_found"
	case errors.Is(err, persistence.ErrConstraintViolation):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var sErr *StorageError
	if errors.As(err, &sErr) {
		return "storage"
	}

	return "unexpected"
}
