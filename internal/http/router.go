package http

import (
	"net/http"
	"strings"
)

const (
	SharePathPrefix = "/calendar/share/"
	MetricsPath     = "/metrics"
)

type RouterConfig struct {
	Feed        *FeedHandler
	RateLimiter *RateLimiter
	Metrics     http.Handler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	responder := newResponder(nil)

	if cfg.Feed != nil {
		var share http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := strings.TrimPrefix(r.URL.Path, SharePathPrefix)
			if secret == "" || strings.Contains(secret, "/") {
				responder.writeError(r.Context(), w, http.StatusNotFound, nil)
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead:
				cfg.Feed.Serve(w, r, secret)
			default:
				methodNotAllowed(w, r, http.MethodGet, http.MethodHead)
			}
		})
		if cfg.RateLimiter != nil {
			share = RateLimit(cfg.RateLimiter)(share)
		}
		mux.Handle(SharePathPrefix, share)
	}

	if cfg.Metrics != nil {
		metrics := cfg.Metrics
		mux.HandleFunc(MetricsPath, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r, http.MethodGet)
				return
			}
			metrics.ServeHTTP(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	newResponder(nil).writeError(r.Context(), w, http.StatusMethodNotAllowed, nil)
}
