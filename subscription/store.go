package subscription

import (
	"context"

	"github.com/google/uuid"
)

// MutateFunc inspects the current record for a user and returns the
// record to persist. current is nil when the user has no subscription
// yet. Returning (nil, nil) means "no write"; the store keeps the
// current record untouched. Returning an error aborts the transaction
// and persists nothing.
type MutateFunc func(current *Subscription) (*Subscription, error)

// Store is the durable subscription store, a transactional key-value
// store keyed by user ID that always serves the latest record.
type Store interface {
	// Latest returns the most recent subscription record for the user,
	// or ErrNotFound if none exists.
	Latest(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Mutate runs fn against the user's latest record while holding a
	// per-user lock, then persists the returned record atomically. A
	// record returned with a zero ID is inserted as a new row; a record
	// keeping its ID updates in place. Concurrent mutations for the
	// same user are serialized, never interleaved.
	Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*Subscription, error)
}
