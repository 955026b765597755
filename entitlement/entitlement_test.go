package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lessonforge/tutorkit/entitlement"
	"github.com/lessonforge/tutorkit/subscription"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	periodEnd := now.AddDate(0, 1, 0)

	snapshot := func(tier subscription.Tier, status subscription.Status, end time.Time) *subscription.Subscription {
		return &subscription.Subscription{
			Tier:             tier,
			Status:           status,
			BillingCycle:     subscription.CycleMonthly,
			CurrentPeriodEnd: end,
		}
	}

	tests := []struct {
		name     string
		sub      *subscription.Subscription
		required subscription.Tier
		granted  bool
		reason   entitlement.Reason
	}{
		{
			name:     "nil subscription passes a free gate",
			sub:      nil,
			required: subscription.TierFree,
			granted:  true,
			reason:   entitlement.ReasonFreeTier,
		},
		{
			name:     "nil subscription denied at premium gate",
			sub:      nil,
			required: subscription.TierPremium,
			granted:  false,
			reason:   entitlement.ReasonNoPlan,
		},
		{
			name:     "active premium passes a premium gate",
			sub:      snapshot(subscription.TierPremium, subscription.StatusActive, periodEnd),
			required: subscription.TierPremium,
			granted:  true,
			reason:   entitlement.ReasonActive,
		},
		{
			name:     "pro is not entitled to a premium gate",
			sub:      snapshot(subscription.TierPro, subscription.StatusActive, periodEnd),
			required: subscription.TierPremium,
			granted:  false,
			reason:   entitlement.ReasonTierMismatch,
		},
		{
			name:     "premium is not entitled to a pro gate",
			sub:      snapshot(subscription.TierPremium, subscription.StatusActive, periodEnd),
			required: subscription.TierPro,
			granted:  false,
			reason:   entitlement.ReasonTierMismatch,
		},
		{
			name:     "cancelled within grace period is granted",
			sub:      snapshot(subscription.TierPremium, subscription.StatusCancelled, now.Add(time.Hour)),
			required: subscription.TierPremium,
			granted:  true,
			reason:   entitlement.ReasonGracePeriod,
		},
		{
			name:     "cancelled past period end is denied",
			sub:      snapshot(subscription.TierPremium, subscription.StatusCancelled, now.Add(-time.Second)),
			required: subscription.TierPremium,
			granted:  false,
			reason:   entitlement.ReasonExpired,
		},
		{
			name:     "cancelled exactly at period end is denied",
			sub:      snapshot(subscription.TierPremium, subscription.StatusCancelled, now),
			required: subscription.TierPremium,
			granted:  false,
			reason:   entitlement.ReasonExpired,
		},
		{
			name:     "expired status is denied",
			sub:      snapshot(subscription.TierPro, subscription.StatusExpired, periodEnd),
			required: subscription.TierPro,
			granted:  false,
			reason:   entitlement.ReasonInactive,
		},
		{
			name:     "past due status is denied",
			sub:      snapshot(subscription.TierPro, subscription.StatusPastDue, periodEnd),
			required: subscription.TierPro,
			granted:  false,
			reason:   entitlement.ReasonInactive,
		},
		{
			name:     "active free record passes a free gate",
			sub:      snapshot(subscription.TierFree, subscription.StatusActive, periodEnd),
			required: subscription.TierFree,
			granted:  true,
			reason:   entitlement.ReasonActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := entitlement.Evaluate(tt.sub, tt.required, now)
			assert.Equal(t, tt.granted, got.Granted)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.granted, entitlement.Allowed(tt.sub, tt.required, now))
		})
	}
}
