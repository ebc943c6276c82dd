package governance

import (
	"context"
	"fmt"
	"regexp"

	"gotier/domain/evidence"
	"gotier/domain/gates"
	"gotier/domain/policy"
	"gotier/ports"
)

// Input is everything the gates see for one entry
type Input struct {
	Claim      string
	Category   string
	Policy     policy.CategoryPolicy
	Evidence   *evidence.Set
	Normalized []evidence.NormalizedEffect
}

// Evaluation is the gate verdict plus the rows that survive screening.
// Rows from blacklisted venues and rows below the relevance threshold are
// excluded here so the pooled estimate never sees them.
type Evaluation struct {
	Results  gates.ResultSet
	Included []evidence.NormalizedEffect
}

// Engine runs the five ordered gates. Patterns are compiled once at
// construction; a malformed pattern is a policy error, not a runtime one.
type Engine struct {
	rules  policy.GateRules
	oracle ports.TrustOracle

	forbidden       []compiledPattern
	exaggeration    []compiledExaggeration
	contraindicated []compiledContraindication
}

type compiledPattern struct {
	id     string
	re     *regexp.Regexp
	reason string
}

type compiledExaggeration struct {
	id         string
	re         *regexp.Regexp
	exceptions []*regexp.Regexp
}

type compiledContraindication struct {
	id         string
	claim      *regexp.Regexp
	population *regexp.Regexp
	reason     string
}

// NewEngine compiles the gate rule patterns and binds the trust oracle
func NewEngine(rules policy.GateRules, oracle ports.TrustOracle) (*Engine, error) {
	e := &Engine{rules: rules, oracle: oracle}

	for _, p := range rules.Forbidden {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("forbidden pattern %s: %w", p.ID, err)
		}
		e.forbidden = append(e.forbidden, compiledPattern{id: p.ID, re: re, reason: p.Reason})
	}

	for _, p := range rules.Exaggeration {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("exaggeration pattern %s: %w", p.ID, err)
		}
		ce := compiledExaggeration{id: p.ID, re: re}
		for _, exc := range p.Exceptions {
			excRe, err := regexp.Compile("(?i)" + exc)
			if err != nil {
				return nil, fmt.Errorf("exaggeration exception under %s: %w", p.ID, err)
			}
			ce.exceptions = append(ce.exceptions, excRe)
		}
		e.exaggeration = append(e.exaggeration, ce)
	}

	for _, c := range rules.Safety.Contraindications {
		claimRe, err := regexp.Compile("(?i)" + c.ClaimPattern)
		if err != nil {
			return nil, fmt.Errorf("contraindication %s claim: %w", c.ID, err)
		}
		popRe, err := regexp.Compile("(?i)" + c.PopulationPattern)
		if err != nil {
			return nil, fmt.Errorf("contraindication %s population: %w", c.ID, err)
		}
		e.contraindicated = append(e.contraindicated, compiledContraindication{
			id: c.ID, claim: claimRe, population: popRe, reason: c.Reason,
		})
	}

	return e, nil
}

// Evaluate runs the gates in their fixed order. The returned evaluation
// always carries all five results; callers check SafetyCritical before
// trusting the included rows.
func (e *Engine) Evaluate(ctx context.Context, in Input) (*Evaluation, error) {
	rowCtx := indexRows(in.Evidence)

	eval := &Evaluation{}
	eval.Results.Plausibility = e.plausibility(in, rowCtx)

	relevance, relevantRows := e.relevance(in, rowCtx)
	eval.Results.Relevance = relevance

	trustRes, trustedRows, err := e.trust(ctx, relevantRows, rowCtx)
	if err != nil {
		return nil, err
	}
	eval.Results.Trust = trustRes
	eval.Included = trustedRows

	eval.Results.Safety = e.safety(in, rowCtx)
	eval.Results.Exaggeration = e.exaggerationGate(in)

	return eval, nil
}

// indexRows maps study IDs back to their raw records for gate context text
func indexRows(set *evidence.Set) map[string]evidence.StudyRecord {
	idx := make(map[string]evidence.StudyRecord, len(set.Rows))
	for _, row := range set.Rows {
		idx[row.StudyID.String()] = row
	}
	return idx
}
