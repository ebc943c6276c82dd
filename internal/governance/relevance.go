package governance

import (
	"fmt"
	"strings"

	"gotier/domain/evidence"
	"gotier/domain/gates"
)

// relevance scores how well each study fits the entry's outcome category and
// drops rows below the policy threshold before pooling. The gate's own score
// is the size-weighted mean over all rows, so one large off-topic trial
// lowers it more than a small one.
func (e *Engine) relevance(in Input, rows map[string]evidence.StudyRecord) (gates.Result, []evidence.NormalizedEffect) {
	if len(in.Normalized) == 0 {
		return gates.Scored(gates.GateRelevance, gates.OutcomeFail, 0, "no evidence rows"), nil
	}

	var kept []evidence.NormalizedEffect
	weightedSum := 0.0
	totalWeight := 0.0

	for _, norm := range in.Normalized {
		raw := rows[norm.StudyID.String()]
		score := rowRelevance(raw, in.Policy.OutcomeTerms, in.Policy.PopulationTerms)

		w := float64(norm.Weight)
		if w <= 0 {
			w = 1
		}
		weightedSum += score * w
		totalWeight += w

		if score >= e.rules.Relevance.Threshold {
			kept = append(kept, norm)
		}
	}

	aggregate := weightedSum / totalWeight
	if aggregate >= e.rules.Relevance.Threshold {
		return gates.Scored(gates.GateRelevance, gates.OutcomePass, aggregate, ""), kept
	}
	return gates.Scored(gates.GateRelevance, gates.OutcomeFail, aggregate,
		fmt.Sprintf("relevance %.2f below threshold %.2f", aggregate, e.rules.Relevance.Threshold)), kept
}

// rowRelevance combines outcome-term and population-term matching.
// Outcome fit dominates; a category that defines no terms for a component
// accepts every row on that component.
func rowRelevance(row evidence.StudyRecord, outcomeTerms, populationTerms []string) float64 {
	return 0.6*termMatch(row.Outcome, outcomeTerms) + 0.4*termMatch(row.Population, populationTerms)
}

func termMatch(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}
	lowered := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lowered, strings.ToLower(term)) {
			return 1
		}
	}
	return 0
}
