package promo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lessonforge/tutorkit/pkg/pg"
)

// PostgresStore persists promo codes. Redemption is a single
// conditional UPDATE so the usage-cap check and the increment cannot
// race: a concurrent redemption either sees a free slot or matches no
// row at all.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("promo: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Redeem(ctx context.Context, code string, now time.Time) (*Code, error) {
	row := s.pool.QueryRow(ctx, `
UPDATE promo_codes
SET current_uses = current_uses + 1
WHERE code = $1
  AND active
  AND $2 BETWEEN active_from AND active_until
  AND current_uses < max_uses
RETURNING id, code, percent_off, active_from, active_until,
          max_uses, current_uses, active, created_at`,
		code, now)

	c, err := scanCode(row)
	if err == nil {
		return c, nil
	}
	if !pg.IsNotFoundError(err) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	// No row matched; fetch the code to report why redemption failed.
	existing, getErr := s.Get(ctx, code)
	if getErr != nil {
		return nil, getErr
	}
	if reason := existing.redeemableAt(now); reason != nil {
		return nil, reason
	}
	// Raced with a concurrent redemption that took the last slot.
	return nil, ErrCodeExhausted
}

func (s *PostgresStore) Get(ctx context.Context, code string) (*Code, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, code, percent_off, active_from, active_until,
       max_uses, current_uses, active, created_at
FROM promo_codes
WHERE code = $1`,
		code)

	c, err := scanCode(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCodeNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*Code, error) {
	var c Code
	err := row.Scan(
		&c.ID, &c.Code, &c.PercentOff, &c.ActiveFrom, &c.ActiveUntil,
		&c.MaxUses, &c.CurrentUses, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
