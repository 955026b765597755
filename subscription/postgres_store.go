package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lessonforge/tutorkit/pkg/pg"
)

// PostgresStore persists subscriptions in PostgreSQL. Mutations lock
// the user's latest row with SELECT ... FOR UPDATE inside a single
// transaction, so a concurrent upgrade and cancel for the same user
// serialize instead of losing one of the writes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const latestQuery = `
SELECT id, user_id, tier, status, billing_cycle,
       current_period_start, current_period_end, cancel_at_period_end,
       scheduled_tier, scheduled_cycle, scheduled_change_at,
       created_at, updated_at
FROM subscriptions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`

func (s *PostgresStore) Latest(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, latestQuery, userID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return sub, nil
}

func (s *PostgresStore) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*Subscription, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current *Subscription
	sub, err := scanSubscription(tx.QueryRow(ctx, latestQuery+" FOR UPDATE", userID))
	switch {
	case err == nil:
		current = sub
	case pg.IsNotFoundError(err):
		// First subscription for this user.
	default:
		return nil, errors.Join(ErrStoreFailure, err)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}

	if next.ID == uuid.Nil {
		next.ID = uuid.New()
		next.CreatedAt = next.UpdatedAt
		if err := insertSubscription(ctx, tx, next); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
	} else {
		if err := updateSubscription(ctx, tx, next); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return next, nil
}

func insertSubscription(ctx context.Context, tx pgx.Tx, sub *Subscription) error {
	_, err := tx.Exec(ctx, `
INSERT INTO subscriptions (
    id, user_id, tier, status, billing_cycle,
    current_period_start, current_period_end, cancel_at_period_end,
    scheduled_tier, scheduled_cycle, scheduled_change_at,
    created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		sub.ID, sub.UserID, sub.Tier, sub.Status, sub.BillingCycle,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.ScheduledTier, sub.ScheduledCycle, sub.ScheduledChangeAt,
		sub.CreatedAt, sub.UpdatedAt)
	return err
}

func updateSubscription(ctx context.Context, tx pgx.Tx, sub *Subscription) error {
	_, err := tx.Exec(ctx, `
UPDATE subscriptions SET
    tier = $2, status = $3, billing_cycle = $4,
    current_period_start = $5, current_period_end = $6,
    cancel_at_period_end = $7,
    scheduled_tier = $8, scheduled_cycle = $9, scheduled_change_at = $10,
    updated_at = $11
WHERE id = $1`,
		sub.ID, sub.Tier, sub.Status, sub.BillingCycle,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.ScheduledTier, sub.ScheduledCycle, sub.ScheduledChangeAt,
		sub.UpdatedAt)
	return err
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		sub               Subscription
		scheduledTier     *string
		scheduledCycle    *string
		scheduledChangeAt *time.Time
	)

	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Tier, &sub.Status, &sub.BillingCycle,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&scheduledTier, &scheduledCycle, &scheduledChangeAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledTier != nil {
		t := Tier(*scheduledTier)
		sub.ScheduledTier = &t
	}
	if scheduledCycle != nil {
		c := BillingCycle(*scheduledCycle)
		sub.ScheduledCycle = &c
	}
	sub.ScheduledChangeAt = scheduledChangeAt

	return &sub, nil
}
