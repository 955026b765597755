package subscription

import "time"

// Tier is a subscription tier, totally ordered by entitlement rank.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// Rank returns the tier's position in the upgrade order. Higher rank
// means more access. Unknown tiers rank below free so they never win
// an upgrade comparison.
func (t Tier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierPremium:
		return 1
	case TierPro:
		return 2
	default:
		return -1
	}
}

func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// ParseTier validates a raw tier string from an untrusted caller.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", ErrInvalidTier
	}
	return t, nil
}

// BillingCycle is the billing frequency of a paid subscription.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// ParseBillingCycle validates a raw cycle string from an untrusted caller.
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(s)
	if !c.Valid() {
		return "", ErrInvalidCycle
	}
	return c, nil
}

// PeriodEnd computes the end of a billing period opened at start.
// Calendar arithmetic is used, so a monthly period opened Jan 31 ends
// Mar 3 on non-leap years per time.AddDate normalization.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	if c == CycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// Status is the lifecycle state of a subscription record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusPastDue   Status = "past_due"
)
