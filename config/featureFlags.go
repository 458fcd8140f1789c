package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// IsProduction is true when GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// SessionTTL bounds sessions, tokens and everything stored for a session.
//
// Env: SESSION_TTL_MINUTES (default 120)
func SessionTTL() time.Duration {
	return time.Duration(envInt("SESSION_TTL_MINUTES", 120)) * time.Minute
}

// Env: MAX_UPLOAD_SIZE_MB (default 20)
func MaxUploadSizeBytes() int64 {
	return int64(envInt("MAX_UPLOAD_SIZE_MB", 20)) * 1024 * 1024
}

// Env: ENABLE_REPORT_CACHE
func ReportCacheEnabled() bool {
	return envBool("ENABLE_REPORT_CACHE")
}

// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
func ReportCacheTTL() time.Duration {
	return time.Duration(envInt("REPORT_CACHE_TTL_SECONDS", 120)) * time.Second
}

// Env: REPORT_SLOW_MS (default 500ms)
func ReportSlowMs() int64 {
	return int64(envInt("REPORT_SLOW_MS", 500))
}

// Env: REPORT_ARCHIVE_BUCKET. Empty disables archiving.
func ReportArchiveBucket() string {
	return strings.TrimSpace(os.Getenv("REPORT_ARCHIVE_BUCKET"))
}

// Env: REPORT_EVENTS_TOPIC. Empty disables report events.
func ReportEventsTopic() string {
	return strings.TrimSpace(os.Getenv("REPORT_EVENTS_TOPIC"))
}

// Env: RATE_LIMIT_ENABLED, RATE_LIMIT_MAX_REQUESTS (default 600), RATE_LIMIT_WINDOW_SECONDS (default 60)
func RateLimit() (enabled bool, limit int64, window time.Duration) {
	return envBool("RATE_LIMIT_ENABLED"),
		int64(envInt("RATE_LIMIT_MAX_REQUESTS", 600)),
		time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
}
