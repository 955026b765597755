package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service is the subscription lifecycle manager. All mutations are
// read-modify-write transactions against the Store, serialized per user,
// and every read applies any due period rollover first so callers always
// observe the state the subscription would have if rollover ran
// continuously.
type Service struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock. Tests inject fixed or
// advancing clocks so period boundaries are deterministic.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for lifecycle transition logs.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a lifecycle manager. Panics if store is nil to
// fail fast during initialization.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: store is required")
	}
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's current subscription snapshot, applying any
// due scheduled change or expiry before returning. Returns ErrNotFound
// when the user never subscribed; callers treat that as the implicit
// free tier.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !rolloverDue(sub, now) {
		return sub, nil
	}

	// A rollover is due: re-read under the per-user lock and apply it
	// atomically. The due check repeats inside the transaction because
	// another request may have applied it first.
	return s.store.Mutate(ctx, userID, func(current *Subscription) (*Subscription, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		if !s.applyRollover(current, now) {
			return nil, nil
		}
		current.UpdatedAt = now
		return current, nil
	})
}

// Create opens a new paid subscription for a user with no active one.
// The billing period starts now and ends one month or one year later
// depending on the cycle.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, tier Tier, cycle BillingCycle) (*Subscription, error) {
	if !tier.Valid() || tier == TierFree {
		return nil, ErrInvalidTier
	}
	if !cycle.Valid() {
		return nil, ErrInvalidCycle
	}

	now := s.now()
	sub, err := s.store.Mutate(ctx, userID, func(current *Subscription) (*Subscription, error) {
		if current != nil {
			s.applyRollover(current, now)
			if current.Tier != TierFree && current.Status != StatusExpired {
				return nil, ErrAlreadyExists
			}
		}

		return &Subscription{
			UserID:             userID,
			Tier:               tier,
			Status:             StatusActive,
			BillingCycle:       cycle,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   cycle.PeriodEnd(now),
			UpdatedAt:          now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription created",
		"user_id", userID, "tier", tier, "cycle", cycle,
		"period_end", sub.CurrentPeriodEnd)
	return sub, nil
}

// ChangePlan moves a subscriber to a different tier. Strictly higher
// tiers take effect immediately and supersede any pending downgrade or
// cancellation; strictly lower tiers are scheduled for the end of the
// paid period so already-paid access is never clawed back mid-cycle.
// Requesting the currently held tier is rejected as a no-op.
func (s *Service) ChangePlan(ctx context.Context, userID uuid.UUID, tier Tier, cycle BillingCycle) (*Subscription, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	if !cycle.Valid() {
		return nil, ErrInvalidCycle
	}

	now := s.now()
	sub, err := s.store.Mutate(ctx, userID, func(current *Subscription) (*Subscription, error) {
		if current == nil {
			return nil, ErrNotSubscribed
		}
		s.applyRollover(current, now)

		switch {
		case tier == current.Tier:
			return nil, ErrSamePlan

		case tier.Rank() > current.Tier.Rank():
			// Immediate upgrade: the user's explicit higher-tier intent
			// wins over any scheduled downgrade or pending cancellation.
			current.Tier = tier
			current.BillingCycle = cycle
			current.Status = StatusActive
			current.CancelAtPeriodEnd = false
			current.clearSchedule()

		default:
			current.scheduleChange(tier, cycle, current.CurrentPeriodEnd)
		}

		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	if sub.HasScheduledChange() && *sub.ScheduledTier == tier {
		s.log.InfoContext(ctx, "plan downgrade scheduled",
			"user_id", userID, "from", sub.Tier, "to", tier,
			"effective_at", *sub.ScheduledChangeAt)
	} else {
		s.log.InfoContext(ctx, "plan upgraded",
			"user_id", userID, "tier", tier, "cycle", cycle)
	}
	return sub, nil
}

// CancelScheduledChange drops the pending downgrade, leaving the
// current plan and status untouched. Reports ErrNoScheduledChange when
// nothing is pending, so a repeated call is a no-op error, not a fault.
func (s *Service) CancelScheduledChange(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	now := s.now()
	sub, err := s.store.Mutate(ctx, userID, func(current *Subscription) (*Subscription, error) {
		if current == nil {
			return nil, ErrNotSubscribed
		}
		s.applyRollover(current, now)

		if !current.HasScheduledChange() {
			return nil, ErrNoScheduledChange
		}

		current.clearSchedule()
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "scheduled plan change cancelled", "user_id", userID)
	return sub, nil
}

// Cancel requests cancellation of a paid subscription. Access remains
// granted through the end of the paid period; the status flips to
// cancelled immediately so billing stops renewing.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	now := s.now()
	sub, err := s.store.Mutate(ctx, userID, func(current *Subscription) (*Subscription, error) {
		if current == nil {
			return nil, ErrNotSubscribed
		}
		s.applyRollover(current, now)

		if current.Tier == TierFree {
			return nil, ErrNotSubscribed
		}
		if current.Status == StatusCancelled {
			return nil, ErrAlreadyCancelled
		}

		// A pending downgrade schedule is retained: if it comes due
		// during the grace period it still applies.
		current.Status = StatusCancelled
		current.CancelAtPeriodEnd = true
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription cancelled",
		"user_id", userID, "grace_until", sub.CurrentPeriodEnd)
	return sub, nil
}

// rolloverDue reports whether a time-driven transition is pending.
func rolloverDue(sub *Subscription, now time.Time) bool {
	if sub.HasScheduledChange() && !now.Before(*sub.ScheduledChangeAt) {
		return true
	}
	if sub.Tier == TierFree {
		return false
	}
	return (sub.Status == StatusCancelled || sub.Status == StatusActive) &&
		!now.Before(sub.CurrentPeriodEnd)
}

// applyRollover advances the subscription through every time-driven
// transition due at now and reports whether anything changed. Repeated
// application keeps the observable state identical to a continuously
// running sweep even if the record went unread for several periods.
func (s *Service) applyRollover(sub *Subscription, now time.Time) bool {
	changed := false
	for {
		switch {
		case sub.HasScheduledChange() && !now.Before(*sub.ScheduledChangeAt):
			// Scheduled downgrade comes due: the scheduled plan becomes
			// active and a fresh period opens at the scheduled instant.
			at := *sub.ScheduledChangeAt
			sub.Tier = *sub.ScheduledTier
			sub.BillingCycle = *sub.ScheduledCycle
			sub.Status = StatusActive
			sub.CancelAtPeriodEnd = false
			sub.CurrentPeriodStart = at
			sub.CurrentPeriodEnd = sub.BillingCycle.PeriodEnd(at)
			sub.clearSchedule()
			changed = true

		case sub.Tier != TierFree && sub.Status == StatusCancelled && !now.Before(sub.CurrentPeriodEnd):
			// Grace period over with nothing scheduled: revert to the
			// implicit free tier.
			sub.Tier = TierFree
			sub.Status = StatusActive
			sub.CancelAtPeriodEnd = false
			sub.CurrentPeriodStart = sub.CurrentPeriodEnd
			sub.CurrentPeriodEnd = sub.BillingCycle.PeriodEnd(sub.CurrentPeriodStart)
			changed = true

		case sub.Tier != TierFree && sub.Status == StatusActive && !now.Before(sub.CurrentPeriodEnd):
			// Paid period elapsed without cancellation or schedule:
			// roll the period bookkeeping forward. Charging the renewal
			// is the billing system's concern, not ours.
			sub.CurrentPeriodStart = sub.CurrentPeriodEnd
			sub.CurrentPeriodEnd = sub.BillingCycle.PeriodEnd(sub.CurrentPeriodStart)
			changed = true

		default:
			return changed
		}
	}
}
