package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Code is a counted-redemption promo code, valid within a date range
// and capped at MaxUses redemptions.
type Code struct {
	ID          uuid.UUID
	Code        string
	PercentOff  int
	ActiveFrom  time.Time
	ActiveUntil time.Time
	MaxUses     int
	CurrentUses int
	Active      bool
	CreatedAt   time.Time
}

// redeemableAt classifies why a code cannot be redeemed at the given
// instant, or returns nil when it can.
func (c *Code) redeemableAt(now time.Time) error {
	switch {
	case !c.Active:
		return ErrCodeInactive
	case now.Before(c.ActiveFrom) || now.After(c.ActiveUntil):
		return ErrCodeExpired
	case c.CurrentUses >= c.MaxUses:
		return ErrCodeExhausted
	default:
		return nil
	}
}

// Store is the counted-redemption table. Redeem must be atomic: the
// usage-cap check and the increment happen as one operation so
// concurrent redemptions can never push a code past MaxUses.
type Store interface {
	// Redeem validates the code at now and increments its usage count
	// atomically, returning the post-redemption record.
	Redeem(ctx context.Context, code string, now time.Time) (*Code, error)

	// Get returns a code by its string, or ErrCodeNotFound.
	Get(ctx context.Context, code string) (*Code, error)
}
