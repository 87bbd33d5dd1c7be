package http

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/calendar-share/internal/application"
)

const (
	calendarContentType = "text/calendar; charset=utf-8"
	calendarDisposition = `attachment; filename="calendar.ics"`
	calendarSuffix      = ".ics"
)

// FeedExporter renders the calendar a share secret points at.
type FeedExporter interface {
	ExportSharedCalendar(ctx context.Context, secret string) (application.Feed, error)
}

// FeedHandler serves shared calendars.
type FeedHandler struct {
	exporter  FeedExporter
	maxAge    time.Duration
	responder responder
	logger    *slog.Logger
}

// NewFeedHandler constructs a handler. A zero maxAge omits Cache-Control.
func NewFeedHandler(exporter FeedExporter, maxAge time.Duration, logger *slog.Logger) *FeedHandler {
	logger = defaultLogger(logger)
	return &FeedHandler{
		exporter:  exporter,
		maxAge:    maxAge,
		responder: newResponder(logger),
		logger:    logger,
	}
}

// Serve writes the feed for secret. HEAD requests receive headers only.
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request, secret string) {
	ctx := r.Context()
	secret = strings.TrimSuffix(secret, calendarSuffix)
	if secret == "" {
		h.responder.handleServiceError(ctx, w, application.ErrShareNotFound)
		return
	}

	feed, err := h.exporter.ExportSharedCalendar(ctx, secret)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	body := []byte(feed.Body)
	etag := entityTag(body)

	header := w.Header()
	header.Set("ETag", etag)
	if h.maxAge > 0 {
		header.Set("Cache-Control", "private, max-age="+strconv.Itoa(int(h.maxAge/time.Second)))
	}

	if ifNoneMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Type", calendarContentType)
	header.Set("Content-Disposition", calendarDisposition)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		handlerLogger(ctx, h.logger, "FeedHandler", "Serve").WarnContext(ctx, "failed to write calendar body", "error", err)
	}
}

func entityTag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func ifNoneMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
