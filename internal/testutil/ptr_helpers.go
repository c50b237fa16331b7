package testutil

import "time"

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Time returns a pointer to t
func Time(t time.Time) *time.Time {
	return &t
}
