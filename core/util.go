package core

import (
	"math"
	"regexp"
	"strings"
	"time"
)

var nonWordRegex = regexp.MustCompile(`[^A-Za-z0-9]+`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// SafeFileName turns "Juan Dela Cruz" into "Juan_Dela_Cruz".
func SafeFileName(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(nonWordRegex.ReplaceAllString(p, "_"), "_")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "document"
	}
	return strings.Join(cleaned, "_")
}

// Now returns the current UTC time truncated to microseconds, which every supported database can store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
