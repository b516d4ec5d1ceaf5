// Package time holds the small time helpers shared by snapshots and the operator CLI
package time

import "time"

// Ptr returns a pointer to t in UTC, nil for the zero time so json renders null
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// Format renders an optional instant as RFC3339 UTC, empty when nil
func Format(t *time.Time, empty string) string {
	if t == nil {
		return empty
	}
	return t.UTC().Format(time.RFC3339)
}
