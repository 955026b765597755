package entitlement

import (
	"time"

	"github.com/lessonforge/tutorkit/subscription"
)

// Reason explains an entitlement decision for logging and responses.
type Reason string

const (
	ReasonActive       Reason = "active"
	ReasonGracePeriod  Reason = "grace_period"
	ReasonFreeTier     Reason = "free_tier"
	ReasonNoPlan       Reason = "no_plan"
	ReasonTierMismatch Reason = "tier_mismatch"
	ReasonInactive     Reason = "inactive"
	ReasonExpired      Reason = "expired"
)

// Decision is the outcome of evaluating a subscription snapshot against
// a required tier.
type Decision struct {
	Granted bool
	Reason  Reason
}

// Evaluate decides whether a subscription snapshot grants access to a
// feature gated at the required tier.
//
// The policy is exact-tier match: a pro subscriber is not entitled to a
// feature gated at premium. This mirrors the platform's established
// behavior; switching to at-least-tier semantics would be a product
// decision, changed here in one place.
//
// Rules, in order: a nil subscription is the implicit free tier and
// passes only a free gate; a tier mismatch is denied; active status is
// granted; cancelled status is granted while the paid period has not
// ended (grace period); everything else is denied.
//
// The decision is time-dependent, so it must be re-evaluated on every
// gated request and never cached across requests.
func Evaluate(sub *subscription.Subscription, required subscription.Tier, now time.Time) Decision {
	if sub == nil {
		if required == subscription.TierFree {
			return Decision{Granted: true, Reason: ReasonFreeTier}
		}
		return Decision{Granted: false, Reason: ReasonNoPlan}
	}

	if sub.Tier != required {
		return Decision{Granted: false, Reason: ReasonTierMismatch}
	}

	switch {
	case sub.Status == subscription.StatusActive:
		return Decision{Granted: true, Reason: ReasonActive}
	case sub.InGracePeriodAt(now):
		return Decision{Granted: true, Reason: ReasonGracePeriod}
	case sub.Status == subscription.StatusCancelled:
		return Decision{Granted: false, Reason: ReasonExpired}
	default:
		return Decision{Granted: false, Reason: ReasonInactive}
	}
}

// Allowed is the boolean form of Evaluate.
func Allowed(sub *subscription.Subscription, required subscription.Tier, now time.Time) bool {
	return Evaluate(sub, required, now).Granted
}
