package subscription

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads the plan catalog from a YAML file, letting pricing
// and quotas change without a rebuild.
//
//	plans:
//	  - tier: premium
//	    name: Premium
//	    price_monthly: 999
//	    price_yearly: 9990
//	    tutor_requests_per_minute: 10
//	    history_depth: 20
//	    public: true
type yamlSource struct {
	path string
}

type yamlPlan struct {
	Tier                   string `yaml:"tier"`
	Name                   string `yaml:"name"`
	Description            string `yaml:"description"`
	PriceMonthly           int64  `yaml:"price_monthly"`
	PriceYearly            int64  `yaml:"price_yearly"`
	TutorRequestsPerMinute int    `yaml:"tutor_requests_per_minute"`
	HistoryDepth           int    `yaml:"history_depth"`
	Public                 bool   `yaml:"public"`
}

type yamlCatalog struct {
	Plans []yamlPlan `yaml:"plans"`
}

// NewYAMLSource returns a CatalogSource reading plans from the given
// file path. The file is read on every Load call.
func NewYAMLSource(path string) CatalogSource {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[Tier]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog %s: %w", s.path, err)
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog %s: %w", s.path, err)
	}

	plans := make(map[Tier]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		tier, err := ParseTier(p.Tier)
		if err != nil {
			return nil, fmt.Errorf("plan catalog %s: unknown tier %q", s.path, p.Tier)
		}
		plans[tier] = Plan{
			Tier:                   tier,
			Name:                   p.Name,
			Description:            p.Description,
			PriceMonthly:           p.PriceMonthly,
			PriceYearly:            p.PriceYearly,
			TutorRequestsPerMinute: p.TutorRequestsPerMinute,
			HistoryDepth:           p.HistoryDepth,
			Public:                 p.Public,
		}
	}

	return plans, nil
}
