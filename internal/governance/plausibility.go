package governance

import (
	"fmt"
	"math"

	"gotier/domain/evidence"
	"gotier/domain/gates"
)

// plausibility checks the global forbidden patterns first, then the
// category's effect-type allow-list and physiological caps on raw effects.
func (e *Engine) plausibility(in Input, rows map[string]evidence.StudyRecord) gates.Result {
	for _, p := range e.forbidden {
		if p.re.MatchString(in.Claim) {
			return gates.Fail(gates.GatePlausibility, fmt.Sprintf("forbidden pattern %s: %s", p.id, p.reason))
		}
	}

	for _, norm := range in.Normalized {
		raw, ok := rows[norm.StudyID.String()]
		if !ok {
			continue
		}
		if !in.Policy.EffectAllowed(raw.EffectType) {
			return gates.Fail(gates.GatePlausibility,
				fmt.Sprintf("study %s reports %s, not permitted for category %s", raw.StudyID, raw.EffectType, in.Category))
		}
		for _, cap := range in.Policy.Caps {
			if !cap.AppliesTo(raw.EffectType) {
				continue
			}
			if cap.MaxAbs != nil && math.Abs(raw.Effect) > *cap.MaxAbs {
				return gates.Fail(gates.GatePlausibility,
					fmt.Sprintf("study %s effect %.3f exceeds cap %s (|x| <= %.3f)", raw.StudyID, raw.Effect, cap.ID, *cap.MaxAbs))
			}
			if cap.Max != nil && raw.Effect > *cap.Max {
				return gates.Fail(gates.GatePlausibility,
					fmt.Sprintf("study %s effect %.3f exceeds cap %s (x <= %.3f)", raw.StudyID, raw.Effect, cap.ID, *cap.Max))
			}
			if cap.Min != nil && raw.Effect < *cap.Min {
				return gates.Fail(gates.GatePlausibility,
					fmt.Sprintf("study %s effect %.3f below cap %s (x >= %.3f)", raw.StudyID, raw.Effect, cap.ID, *cap.Min))
			}
		}
	}

	return gates.Pass(gates.GatePlausibility)
}
