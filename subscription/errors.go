package subscription

import "errors"

var (
	ErrNotFound          = errors.New("subscription not found")
	ErrAlreadyExists     = errors.New("subscription already exists")
	ErrNotSubscribed     = errors.New("user has no paid subscription")
	ErrAlreadyCancelled  = errors.New("subscription already cancelled")
	ErrSamePlan          = errors.New("requested plan is already active")
	ErrNoScheduledChange = errors.New("no scheduled plan change to cancel")

	ErrInvalidTier  = errors.New("invalid subscription tier")
	ErrInvalidCycle = errors.New("invalid billing cycle")

	// ErrStoreFailure wraps persistence-layer failures so callers can
	// distinguish retry-worthy infrastructure errors from denials.
	ErrStoreFailure = errors.New("subscription store failure")

	ErrInvalidCatalog = errors.New("invalid plan catalog")
)
