package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Plan carries the commercial and gating metadata of a tier: pricing
// for display, the AI-tutor request quota and the conversation depth
// granted to subscribers of the tier.
type Plan struct {
	Tier        Tier
	Name        string
	Description string

	// Prices are in the smallest currency unit (cents).
	PriceMonthly int64
	PriceYearly  int64

	// TutorRequestsPerMinute is the sliding-window quota applied to
	// AI-tutor requests from subscribers of this tier.
	TutorRequestsPerMinute int

	// HistoryDepth is the maximum number of conversation turns kept as
	// AI context for this tier.
	HistoryDepth int

	// Public marks tiers available for self-service signup.
	Public bool
}

// Catalog is the loaded, validated set of plans keyed by tier.
type Catalog struct {
	plans map[Tier]Plan
}

// PlanFor returns the plan for a tier. The boolean is false for tiers
// missing from the catalog, which validation normally prevents.
func (c *Catalog) PlanFor(tier Tier) (Plan, bool) {
	p, ok := c.plans[tier]
	return p, ok
}

// CatalogSource loads plan definitions into the catalog.
type CatalogSource interface {
	Load(ctx context.Context) (map[Tier]Plan, error)
}

// LoadCatalog loads and validates plans from a source. Every tier must
// be present with a positive tutor quota and history depth, so gating
// code never has to handle a missing plan.
func LoadCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	if src == nil {
		panic("subscription: catalog source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	for _, tier := range []Tier{TierFree, TierPremium, TierPro} {
		p, ok := plans[tier]
		if !ok {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("missing plan for tier %q", tier))
		}
		if p.Tier != tier {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan keyed %q declares tier %q", tier, p.Tier))
		}
		if p.TutorRequestsPerMinute <= 0 {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %q has non-positive tutor quota", tier))
		}
		if p.HistoryDepth <= 0 {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %q has non-positive history depth", tier))
		}
	}

	return &Catalog{plans: plans}, nil
}

type inMemSource struct {
	mu    sync.RWMutex
	plans map[Tier]Plan
}

// NewInMemSource returns an in-memory CatalogSource with a copy of the
// given plans. Panics if no plans are provided.
func NewInMemSource(plans ...Plan) CatalogSource {
	if len(plans) == 0 {
		panic("subscription: at least one plan is required")
	}
	byTier := make(map[Tier]Plan, len(plans))
	for _, p := range plans {
		byTier[p.Tier] = p
	}
	return &inMemSource{plans: byTier}
}

func (s *inMemSource) Load(ctx context.Context) (map[Tier]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Tier]Plan, len(s.plans))
	for tier, p := range s.plans {
		out[tier] = p
	}
	return out, nil
}

// DefaultPlans returns the platform's built-in plan set, used when no
// catalog file is configured.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Tier:                   TierFree,
			Name:                   "Free",
			Description:            "Browse lessons, no AI tutor",
			TutorRequestsPerMinute: 2,
			HistoryDepth:           10,
			Public:                 true,
		},
		{
			Tier:                   TierPremium,
			Name:                   "Premium",
			Description:            "AI tutor with standard limits",
			PriceMonthly:           999,
			PriceYearly:            9990,
			TutorRequestsPerMinute: 10,
			HistoryDepth:           20,
			Public:                 true,
		},
		{
			Tier:                   TierPro,
			Name:                   "Pro",
			Description:            "AI tutor with extended limits",
			PriceMonthly:           1999,
			PriceYearly:            19990,
			TutorRequestsPerMinute: 30,
			HistoryDepth:           20,
			Public:                 true,
		},
	}
}
