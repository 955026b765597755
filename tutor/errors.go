package tutor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnentitled reports a plan/status denial. It is a reported
	// outcome, not a system fault.
	ErrUnentitled = errors.New("tutor: subscription does not grant access")

	// ErrRateLimited reports a quota denial.
	ErrRateLimited = errors.New("tutor: rate limit exceeded")

	// ErrProviderFailure wraps failures from the conversational AI
	// provider, surfaced to the caller unchanged in meaning.
	ErrProviderFailure = errors.New("tutor: AI provider failure")

	ErrEmptyMessage = errors.New("tutor: message must not be empty")
)

// QuotaExceededError carries the wait hint alongside the rate limit
// denial; errors.Is(err, ErrRateLimited) matches it.
type QuotaExceededError struct {
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("tutor: rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrRateLimited
}
