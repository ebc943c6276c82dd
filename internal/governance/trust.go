package governance

import (
	"context"
	"fmt"

	"gotier/domain/evidence"
	"gotier/domain/gates"
)

// trust scores the venues behind the surviving rows. Blacklisted venues
// score exactly zero and their rows are excluded from pooling; the gate
// score is the size-weighted mean of per-venue scores over the kept rows.
func (e *Engine) trust(ctx context.Context, rows []evidence.NormalizedEffect, raw map[string]evidence.StudyRecord) (gates.Result, []evidence.NormalizedEffect, error) {
	if len(rows) == 0 {
		return gates.Scored(gates.GateTrust, gates.OutcomeFail, 0, "no evidence rows after screening"), nil, nil
	}

	var kept []evidence.NormalizedEffect
	weightedSum := 0.0
	totalWeight := 0.0
	masked := 0

	for _, norm := range rows {
		score, known, err := e.oracle.Score(ctx, norm.VenueID)
		if err != nil {
			return gates.Result{}, nil, fmt.Errorf("trust oracle for venue %s: %w", norm.VenueID, err)
		}

		w := float64(norm.Weight)
		if w <= 0 {
			w = 1
		}
		weightedSum += score * w
		totalWeight += w

		if known && score == 0 {
			masked++
			continue
		}
		kept = append(kept, norm)
	}

	aggregate := weightedSum / totalWeight
	reason := ""
	outcome := gates.OutcomePass
	if masked > 0 {
		reason = fmt.Sprintf("%d of %d rows masked by venue blacklist", masked, len(rows))
	}
	if aggregate < e.rules.Trust.Threshold {
		outcome = gates.OutcomeFail
		reason = fmt.Sprintf("trust %.2f below threshold %.2f", aggregate, e.rules.Trust.Threshold)
	}
	return gates.Scored(gates.GateTrust, outcome, aggregate, reason), kept, nil
}
