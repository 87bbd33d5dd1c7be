package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/calendar-share/internal/application"
	"github.com/example/calendar-share/internal/logging"
)

const shareNotFoundMessage = "Calendar share link not found"

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError never echoes storage details back to the caller.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, nil)
		return
	}

	switch {
	case errors.Is(err, application.ErrShareNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: shareNotFoundMessage})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.loggerFor(ctx).WarnContext(ctx, "request abandoned", "error", err)
		r.writeError(ctx, w, http.StatusServiceUnavailable, nil)
	default:
		var storageErr *application.StorageError
		if errors.As(err, &storageErr) {
			r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", http.StatusInternalServerError, "op", storageErr.Op, "error", err)
		} else {
			r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", http.StatusInternalServerError, "error", err)
		}
		r.writeError(ctx, w, http.StatusInternalServerError, nil)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return shareNotFoundMessage
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusServiceUnavailable:
		return "Service unavailable"
	default:
		return "Internal server error"
	}
}

type errorResponse struct {
	Message string `json:"message"`
}
