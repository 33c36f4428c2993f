package common

import "strings"

// Unknown is the placeholder for any provider string field that was absent.
const Unknown = "Unknown"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// OrZero dereferences a decoded numeric field, treating nil as 0.
func OrZero[T ~int | ~int64 | ~float64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}

// OrUnknown dereferences a decoded string field, treating nil or blank as Unknown.
func OrUnknown(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return Unknown
	}
	return *v
}

// FirstNonEmpty returns the first non-blank value, or "" when there is none.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// At returns s[i] or the zero value when i is out of range.
func At[T any](s []T, i int) T {
	var zero T
	if i < 0 || i >= len(s) {
		return zero
	}
	return s[i]
}
