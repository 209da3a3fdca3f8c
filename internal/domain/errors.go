package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain outcomes. Callers branch on these with errors.Is; they are never
// retried automatically because repeating the same call cannot succeed.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
)

// ErrUnavailable marks infrastructure failures (lookup, persistence, timeout).
// It is the only class of error eligible for retry.
var ErrUnavailable = errors.New("unavailable")

// IsDomainError reports whether err carries one of the domain outcomes.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidState)
}

// IsRetryable reports whether err is an infrastructure failure.
func IsRetryable(err error) bool {
	return err != nil && errors.Is(err, ErrUnavailable) && !IsDomainError(err)
}

// Unavailable wraps an infrastructure error so it classifies as ErrUnavailable.
// Domain errors and nil pass through untouched.
func Unavailable(op string, err error) error {
	if err == nil || IsDomainError(err) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %w", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
