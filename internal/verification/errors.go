package verification

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates no code was requested for the email
	ErrNotFound = errors.New("verification code not requested")
	// ErrExpired indicates the stored code is past its expiration
	ErrExpired = errors.New("verification code expired")
	// ErrMismatch indicates the submitted code differs from the stored one
	ErrMismatch = errors.New("invalid verification code")
	// ErrBlocked indicates the email is in its cooldown period
	ErrBlocked = errors.New("too many verification code requests")
)

// IsOutcome reports whether err is a verification result rather than an
// infrastructure failure
func IsOutcome(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMismatch) || errors.Is(err, ErrBlocked)
}

// BlockedError carries the end of the cooldown. It matches ErrBlocked with errors.Is.
type BlockedError struct {
	Until time.Time
	// Remaining is the cooldown left when the error was produced
	Remaining time.Duration
}

func newBlockedError(until, now time.Time) *BlockedError {
	e := &BlockedError{Until: until}
	e.Remaining = e.RetryAfter(now)
	return e
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s, try again after %s", ErrBlocked, e.Until.UTC().Format(time.RFC3339))
}

// Is lets errors.Is(err, ErrBlocked) match
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// RetryAfter returns the remaining cooldown relative to now, never negative
func (e *BlockedError) RetryAfter(now time.Time) time.Duration {
	d := e.Until.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
