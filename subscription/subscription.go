package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is one user's subscription record. Exactly one record is
// current per user at any time; superseded records are retained for
// billing history and never hard-deleted.
type Subscription struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Tier         Tier
	Status       Status
	BillingCycle BillingCycle

	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	// CancelAtPeriodEnd is set once cancellation has been requested;
	// access continues through CurrentPeriodEnd.
	CancelAtPeriodEnd bool

	// Scheduled* describe a single pending downgrade. The three fields
	// are set together or nil together.
	ScheduledTier     *Tier
	ScheduledCycle    *BillingCycle
	ScheduledChangeAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// HasScheduledChange reports whether a downgrade is pending.
func (s *Subscription) HasScheduledChange() bool {
	return s.ScheduledTier != nil && s.ScheduledChangeAt != nil
}

// InGracePeriodAt reports whether a cancelled subscription still grants
// access at the given instant.
func (s *Subscription) InGracePeriodAt(now time.Time) bool {
	return s.Status == StatusCancelled && now.Before(s.CurrentPeriodEnd)
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing store-owned state.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	if s.ScheduledTier != nil {
		t := *s.ScheduledTier
		c.ScheduledTier = &t
	}
	if s.ScheduledCycle != nil {
		bc := *s.ScheduledCycle
		c.ScheduledCycle = &bc
	}
	if s.ScheduledChangeAt != nil {
		at := *s.ScheduledChangeAt
		c.ScheduledChangeAt = &at
	}
	return &c
}

// scheduleChange records a pending transition, replacing any previous one.
func (s *Subscription) scheduleChange(tier Tier, cycle BillingCycle, at time.Time) {
	s.ScheduledTier = &tier
	s.ScheduledCycle = &cycle
	s.ScheduledChangeAt = &at
}

// clearSchedule drops all three scheduled-change fields together to
// preserve the all-or-nothing invariant.
func (s *Subscription) clearSchedule() {
	s.ScheduledTier = nil
	s.ScheduledCycle = nil
	s.ScheduledChangeAt = nil
}
