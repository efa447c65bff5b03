package config

import (
	"os"
	"strings"
)

// AttendanceAutoCloseEnabled enables the background worker that checks out
// attendance records left open past the cutoff.
//
// Set via env:
// - ATTENDANCE_AUTO_CLOSE=true
func AttendanceAutoCloseEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ATTENDANCE_AUTO_CLOSE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ListCacheDisabled turns off the redis list caches for master data
// (products, categories). Useful for debugging stale-cache issues.
//
// Set via env:
// - LIST_CACHE_DISABLED=true
func ListCacheDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LIST_CACHE_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// Timezone interprets date-only filters and attendance cutoffs.
// Empty falls through to the helpers' default (Asia/Yangon).
func Timezone() string {
	return strings.TrimSpace(os.Getenv("TIMEZONE"))
}
