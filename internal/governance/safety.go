package governance

import (
	"fmt"
	"strings"

	"gotier/domain/evidence"
	"gotier/domain/gates"
)

// safety applies the deterministic hard caps. A violation is a fail and the
// monotone override guarantees nothing downstream can undo it.
func (e *Engine) safety(in Input, rows map[string]evidence.StudyRecord) gates.Result {
	for _, norm := range in.Normalized {
		raw, ok := rows[norm.StudyID.String()]
		if !ok {
			continue
		}

		if reason := e.seriousAdverseEvent(raw); reason != "" {
			return gates.Fail(gates.GateSafety, reason)
		}
		if reason := e.contraindicatedFor(in.Claim, raw); reason != "" {
			return gates.Fail(gates.GateSafety, reason)
		}
	}

	if e.isSafetyCategory(in.Category) {
		for _, norm := range in.Normalized {
			raw, ok := rows[norm.StudyID.String()]
			if !ok {
				continue
			}
			if raw.RiskOfBias == evidence.BiasHigh {
				return gates.Fail(gates.GateSafety,
					fmt.Sprintf("study %s has high risk of bias in safety category %s", raw.StudyID, in.Category))
			}
			if e.rules.Safety.MaxDurationWeeks > 0 && raw.DurationWeeks > e.rules.Safety.MaxDurationWeeks {
				return gates.Fail(gates.GateSafety,
					fmt.Sprintf("study %s runs %d weeks, over the %d-week cap for safety category %s",
						raw.StudyID, raw.DurationWeeks, e.rules.Safety.MaxDurationWeeks, in.Category))
			}
		}
	}

	return gates.Pass(gates.GateSafety)
}

func (e *Engine) seriousAdverseEvent(row evidence.StudyRecord) string {
	if row.AdverseEvents == "" {
		return ""
	}
	lowered := strings.ToLower(row.AdverseEvents)
	for _, pattern := range e.rules.Safety.SeriousAEPatterns {
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return fmt.Sprintf("study %s reports serious adverse event matching %q", row.StudyID, pattern)
		}
	}
	return ""
}

func (e *Engine) contraindicatedFor(claim string, row evidence.StudyRecord) string {
	for _, c := range e.contraindicated {
		if c.claim.MatchString(claim) && c.population.MatchString(row.Population) {
			return fmt.Sprintf("contraindication %s: %s", c.id, c.reason)
		}
	}
	return ""
}

func (e *Engine) isSafetyCategory(category string) bool {
	for _, c := range e.rules.Safety.SafetyCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}
