package policy

import (
	"encoding/json"
	"fmt"

	"gotier/domain/core"
	"gotier/domain/policy"
)

// Validate checks the structural invariants of a policy: a version tag,
// at least one category, sane Monte Carlo parameters, and an ordered,
// non-overlapping tier table reaching down to zero.
func Validate(p *policy.Policy) error {
	if p.Version == "" {
		return fmt.Errorf("%w: missing version tag", core.ErrInvalidPolicy)
	}
	if len(p.Categories) == 0 {
		return fmt.Errorf("%w: no categories defined", core.ErrInvalidPolicy)
	}
	for name, cat := range p.Categories {
		if err := validateCategory(name, cat); err != nil {
			return err
		}
	}
	if err := validateMonteCarlo(p.MonteCarlo); err != nil {
		return err
	}
	if err := validateTiers(p.Tiers); err != nil {
		return err
	}
	if p.Gates.Relevance.Threshold < 0 || p.Gates.Relevance.Threshold > 1 {
		return fmt.Errorf("%w: relevance threshold %.2f outside [0,1]", core.ErrInvalidPolicy, p.Gates.Relevance.Threshold)
	}
	return nil
}

func validateCategory(name string, cat policy.CategoryPolicy) error {
	if cat.Delta <= 0 {
		return fmt.Errorf("%w: category %s delta must be positive", core.ErrInvalidPolicy, name)
	}
	if cat.BenefitDirection != 1 && cat.BenefitDirection != -1 {
		return fmt.Errorf("%w: category %s benefit direction must be +1 or -1", core.ErrInvalidPolicy, name)
	}
	if cat.MinStudies < 1 {
		return fmt.Errorf("%w: category %s minimum study count must be at least 1", core.ErrInvalidPolicy, name)
	}
	return nil
}

func validateMonteCarlo(mc policy.MonteCarloConfig) error {
	if mc.Draws < 1000 {
		return fmt.Errorf("%w: draw count %d below minimum 1000", core.ErrInvalidPolicy, mc.Draws)
	}
	return nil
}

func validateTiers(t policy.TierTable) error {
	if len(t.Bands) < 2 {
		return fmt.Errorf("%w: tier table needs at least two bands", core.ErrInvalidPolicy)
	}

	bands := t.Sorted()
	seen := make(map[float64]bool, len(bands))
	for _, b := range bands {
		if b.MinP < 0 || b.MinP > 1 {
			return fmt.Errorf("%w: tier band %s lower bound %.2f outside [0,1]", core.ErrInvalidPolicy, b.Tier, b.MinP)
		}
		if seen[b.MinP] {
			return fmt.Errorf("%w: tier bands overlap at %.2f", core.ErrInvalidPolicy, b.MinP)
		}
		seen[b.MinP] = true
	}
	if bands[len(bands)-1].MinP != 0 {
		return fmt.Errorf("%w: tier table must reach down to probability 0", core.ErrInvalidPolicy)
	}
	return nil
}

// CategoryHash returns a stable hash of one category's thresholds, used by
// the dependency graph to scope policy changes.
func CategoryHash(name string, cat policy.CategoryPolicy) (core.Hash, error) {
	data, err := json.Marshal(struct {
		Name     string                `json:"name"`
		Category policy.CategoryPolicy `json:"category"`
	}{Name: name, Category: cat})
	if err != nil {
		return "", fmt.Errorf("hash category %s: %w", name, err)
	}
	return core.NewHash(data), nil
}
