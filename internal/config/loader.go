package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/calendar-share/internal/logging"
)

// Config captures environment driven configuration values for the calendar
// share service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	ProductID         string
	CacheMaxAge       time.Duration
	PrincipalPageSize int
	ShareIndex        bool
	ScanFallback      bool
	ResolveCacheTTL   time.Duration
	ResolveCacheSize  int
	RateLimit         float64
	RateBurst         int
	MetricsEnabled    bool
	LogLevel          slog.Level
	ShutdownTimeout   time.Duration
}

// Load parses configuration values from the current process environment.
//
// Unset variables fall back to defaults. Every malformed variable is reported
// in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:calshare.db",
		ProductID:         "-//calshare//Calendar Share//EN",
		CacheMaxAge:       5 * time.Minute,
		PrincipalPageSize: 500,
		ShareIndex:        true,
		ScanFallback:      true,
		ResolveCacheTTL:   time.Minute,
		ResolveCacheSize:  1024,
		RateLimit:         10,
		RateBurst:         20,
		MetricsEnabled:    true,
		LogLevel:          slog.LevelInfo,
		ShutdownTimeout:   10 * time.Second,
	}

	env := envReader{}

	env.int("CALSHARE_HTTP_PORT", &cfg.HTTPPort, func(v int) bool { return v > 0 && v <= 65535 })
	env.string("CALSHARE_SQLITE_DSN", &cfg.SQLiteDSN)
	env.string("CALSHARE_PRODUCT_ID", &cfg.ProductID)
	env.duration("CALSHARE_CACHE_MAX_AGE", &cfg.CacheMaxAge)
	env.int("CALSHARE_PRINCIPAL_PAGE_SIZE", &cfg.PrincipalPageSize, func(v int) bool { return v >= 0 })
	env.bool("CALSHARE_SHARE_INDEX", &cfg.ShareIndex)
	env.bool("CALSHARE_SCAN_FALLBACK", &cfg.ScanFallback)
	env.duration("CALSHARE_RESOLVE_CACHE_TTL", &cfg.ResolveCacheTTL)
	env.int("CALSHARE_RESOLVE_CACHE_SIZE", &cfg.ResolveCacheSize, func(v int) bool { return v > 0 })
	env.int("CALSHARE_RATE_BURST", &cfg.RateBurst, func(v int) bool { return v > 0 })
	env.bool("CALSHARE_METRICS_ENABLED", &cfg.MetricsEnabled)
	env.duration("CALSHARE_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if value := strings.TrimSpace(os.Getenv("CALSHARE_RATE_LIMIT")); value != "" {
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil || limit < 0 {
			env.invalid = append(env.invalid, "CALSHARE_RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}

	if value := strings.TrimSpace(os.Getenv("CALSHARE_LOG_LEVEL")); value != "" {
		level, err := logging.ParseLevel(value)
		if err != nil {
			env.invalid = append(env.invalid, "CALSHARE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if strings.TrimSpace(cfg.ProductID) == "" {
		env.invalid = append(env.invalid, "CALSHARE_PRODUCT_ID")
	}
	if !cfg.ShareIndex && !cfg.ScanFallback {
		env.invalid = append(env.invalid, "CALSHARE_SCAN_FALLBACK")
	}

	if len(env.invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(env.invalid, ", "))
	}

	return cfg, nil
}

// envReader collects the names of variables whose values cannot be parsed.
type envReader struct {
	invalid []string
}

func (e *envReader) string(key string, dst *string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func (e *envReader) int(key string, dst *int, valid func(int) bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || !valid(parsed) {
		e.invalid = append(e.invalid, key)
		return
	}
	*dst = parsed
}

// duration accepts zero, which callers treat as "disabled".
func (e *envReader) duration(key string, dst *time.Duration) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		e.invalid = append(e.invalid, key)
		return
	}
	*dst = parsed
}

func (e *envReader) bool(key string, dst *bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return
	}
	*dst = parsed
}
