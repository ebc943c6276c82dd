package policy

import (
	"gotier/domain/evidence"
)

// Policy is the complete, versioned configuration a build runs under.
// It is loaded once, validated, and treated as immutable for the whole run;
// changes produce a new Policy value with a new fingerprint, never an edit
// of a live one.
type Policy struct {
	Version    string                    `json:"version" yaml:"version"`
	Categories map[string]CategoryPolicy `json:"categories" yaml:"categories"`
	MonteCarlo MonteCarloConfig          `json:"monte_carlo" yaml:"monte_carlo"`
	Tiers      TierTable                 `json:"tiers" yaml:"tiers"`
	Gates      GateRules                 `json:"gates" yaml:"gates"`
}

// Category returns the configuration for an outcome category
func (p *Policy) Category(name string) (CategoryPolicy, bool) {
	c, ok := p.Categories[name]
	return c, ok
}

// CategoryPolicy carries the per-outcome-category decision parameters
type CategoryPolicy struct {
	// Delta is the minimal clinically meaningful effect on the normalized scale
	Delta float64 `json:"delta" yaml:"delta"`
	// BenefitDirection is +1 when larger effects favor benefit, -1 when smaller do
	BenefitDirection int `json:"benefit_direction" yaml:"benefit_direction"`
	// MinStudies is the smallest evidence set the category accepts
	MinStudies int `json:"min_studies" yaml:"min_studies"`
	// AllowedEffects restricts which effect scales are plausible for the category
	AllowedEffects []evidence.EffectType `json:"allowed_effects" yaml:"allowed_effects"`
	// Caps are physiological bounds on raw effect sizes
	Caps []EffectCap `json:"caps,omitempty" yaml:"caps"`
	// OutcomeTerms and PopulationTerms feed the relevance gate
	OutcomeTerms    []string `json:"outcome_terms,omitempty" yaml:"outcome_terms"`
	PopulationTerms []string `json:"population_terms,omitempty" yaml:"population_terms"`
}

// EffectAllowed reports whether an effect type is permitted for the category.
// An empty allow-list permits everything.
func (c CategoryPolicy) EffectAllowed(t evidence.EffectType) bool {
	if len(c.AllowedEffects) == 0 {
		return true
	}
	for _, allowed := range c.AllowedEffects {
		if allowed == t {
			return true
		}
	}
	return false
}

// EffectCap is a physiological bound on raw effect sizes. A zero pointer
// means the bound is not set.
type EffectCap struct {
	ID          string                `json:"id" yaml:"id"`
	EffectTypes []evidence.EffectType `json:"effect_types,omitempty" yaml:"effect_types"`
	MaxAbs      *float64              `json:"max_abs,omitempty" yaml:"max_abs"`
	Max         *float64              `json:"max,omitempty" yaml:"max"`
	Min         *float64              `json:"min,omitempty" yaml:"min"`
}

// AppliesTo reports whether the cap constrains the given effect type
func (c EffectCap) AppliesTo(t evidence.EffectType) bool {
	if len(c.EffectTypes) == 0 {
		return true
	}
	for _, et := range c.EffectTypes {
		if et == t {
			return true
		}
	}
	return false
}

// MonteCarloConfig fixes the seeded simulation parameters
type MonteCarloConfig struct {
	Seed      int64  `json:"seed" yaml:"seed"`
	Draws     int    `json:"draws" yaml:"draws"`
	TauMethod string `json:"tau_method" yaml:"tau_method"`
	Version   string `json:"version" yaml:"version"`
}

// GateRules configures the five-gate governance protocol
type GateRules struct {
	Version      string                `json:"version" yaml:"version"`
	Forbidden    []ForbiddenPattern    `json:"forbidden" yaml:"forbidden"`
	Relevance    RelevanceRules        `json:"relevance" yaml:"relevance"`
	Trust        TrustRules            `json:"trust" yaml:"trust"`
	Safety       SafetyRules           `json:"safety" yaml:"safety"`
	Exaggeration []ExaggerationPattern `json:"exaggeration" yaml:"exaggeration"`
}

// ForbiddenPattern is a global intervention/claim pattern that fails the
// plausibility gate regardless of category.
type ForbiddenPattern struct {
	ID      string `json:"id" yaml:"id"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Reason  string `json:"reason" yaml:"reason"`
}

// RelevanceRules configures the relevance gate
type RelevanceRules struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// TrustRules configures the source-trust gate and oracle
type TrustRules struct {
	Threshold float64      `json:"threshold" yaml:"threshold"`
	Weights   TrustWeights `json:"weights" yaml:"weights"`
	// Squash parameters for the bounded sigmoid applied to the raw score
	SquashSlope float64 `json:"squash_slope" yaml:"squash_slope"`
	SquashShift float64 `json:"squash_shift" yaml:"squash_shift"`
}

// TrustWeights are the linear fusion weights over venue quality signals
type TrustWeights struct {
	Impact    float64 `json:"impact" yaml:"impact"`
	Secondary float64 `json:"secondary" yaml:"secondary"`
	Listed    float64 `json:"listed" yaml:"listed"`
	Certified float64 `json:"certified" yaml:"certified"`
}

// SafetyRules configures the deterministic hard-cap safety gate
type SafetyRules struct {
	// SeriousAEPatterns are substrings of adverse-event text that hard-fail
	SeriousAEPatterns []string `json:"serious_ae_patterns" yaml:"serious_ae_patterns"`
	// SafetyCategories get stricter bias and duration checks
	SafetyCategories []string `json:"safety_categories" yaml:"safety_categories"`
	// MaxDurationWeeks bounds unmonitored intervention length in safety categories
	MaxDurationWeeks int `json:"max_duration_weeks" yaml:"max_duration_weeks"`
	// Contraindications pair an intervention pattern with a population pattern
	Contraindications []Contraindication `json:"contraindications,omitempty" yaml:"contraindications"`
}

// Contraindication hard-fails when both the claim and a study population match
type Contraindication struct {
	ID                string `json:"id" yaml:"id"`
	ClaimPattern      string `json:"claim_pattern" yaml:"claim_pattern"`
	PopulationPattern string `json:"population_pattern" yaml:"population_pattern"`
	Reason            string `json:"reason" yaml:"reason"`
}

// ExaggerationPattern flags absolute/superlative claim language.
// Exceptions are regexes that, when found near the match, suppress the flag.
type ExaggerationPattern struct {
	ID         string   `json:"id" yaml:"id"`
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Exceptions []string `json:"exceptions,omitempty" yaml:"exceptions"`
}
