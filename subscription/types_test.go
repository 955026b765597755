package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lessonforge/tutorkit/subscription"
)

func TestTierRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, subscription.TierFree.Rank(), subscription.TierPremium.Rank())
	assert.Less(t, subscription.TierPremium.Rank(), subscription.TierPro.Rank())
	assert.Equal(t, -1, subscription.Tier("platinum").Rank())
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    subscription.Tier
		wantErr error
	}{
		{input: "free", want: subscription.TierFree},
		{input: "premium", want: subscription.TierPremium},
		{input: "pro", want: subscription.TierPro},
		{input: "platinum", wantErr: subscription.ErrInvalidTier},
		{input: "", wantErr: subscription.ErrInvalidTier},
		{input: "Premium", wantErr: subscription.ErrInvalidTier},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := subscription.ParseTier(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillingCyclePeriodEnd(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t,
		time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC),
		subscription.CycleMonthly.PeriodEnd(start))
	assert.Equal(t,
		time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		subscription.CycleYearly.PeriodEnd(start))
}

func TestParseBillingCycle(t *testing.T) {
	t.Parallel()

	_, err := subscription.ParseBillingCycle("weekly")
	assert.ErrorIs(t, err, subscription.ErrInvalidCycle)

	got, err := subscription.ParseBillingCycle("yearly")
	assert.NoError(t, err)
	assert.Equal(t, subscription.CycleYearly, got)
}

func TestSubscriptionClone(t *testing.T) {
	t.Parallel()

	tier := subscription.TierPremium
	cycle := subscription.CycleMonthly
	at := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	original := &subscription.Subscription{
		Tier:              subscription.TierPro,
		ScheduledTier:     &tier,
		ScheduledCycle:    &cycle,
		ScheduledChangeAt: &at,
	}

	clone := original.Clone()
	*clone.ScheduledTier = subscription.TierFree

	assert.Equal(t, subscription.TierPremium, *original.ScheduledTier)
}
