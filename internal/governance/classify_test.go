package governance

import (
	"testing"

	"gotier/domain/gates"
	"gotier/domain/policy"
	"gotier/domain/verdict"
)

func passingGates() gates.ResultSet {
	score := 0.9
	return gates.ResultSet{
		Plausibility: gates.Pass(gates.GatePlausibility),
		Relevance:    gates.Result{Gate: gates.GateRelevance, Outcome: gates.OutcomePass, Score: &score},
		Trust:        gates.Result{Gate: gates.GateTrust, Outcome: gates.OutcomePass, Score: &score},
		Safety:       gates.Pass(gates.GateSafety),
		Exaggeration: gates.Pass(gates.GateExaggeration),
	}
}

func TestClassify_BandBoundariesInclusiveAtLowerEdge(t *testing.T) {
	c := NewClassifier(policy.DefaultTierTable())
	results := passingGates()

	tests := []struct {
		p     float64
		tier  verdict.Tier
		label verdict.Label
	}{
		{0.99, verdict.TierGold, verdict.LabelPass},
		{0.90, verdict.TierGold, verdict.LabelPass},
		{0.8999, verdict.TierSilver, verdict.LabelPass},
		{0.75, verdict.TierSilver, verdict.LabelPass},
		{0.60, verdict.TierBronze, verdict.LabelAmber},
		{0.5999, verdict.TierRed, verdict.LabelAmber},
		{0.20, verdict.TierRed, verdict.LabelAmber},
		{0.1999, verdict.TierBlack, verdict.LabelFail},
		{0.0, verdict.TierBlack, verdict.LabelFail},
	}
	for _, tt := range tests {
		tier, label := c.Classify(tt.p, results)
		if tier != tt.tier {
			t.Errorf("p=%.4f: expected %s, got %s", tt.p, tt.tier, tier)
		}
		if label != tt.label {
			t.Errorf("p=%.4f: expected label %s, got %s", tt.p, tt.label, label)
		}
	}
}

func TestClassify_SafetyFailForcesWorstAtAnyProbability(t *testing.T) {
	c := NewClassifier(policy.DefaultTierTable())

	for _, p := range []float64{0.99, 0.01} {
		results := passingGates()
		results.Safety = gates.Fail(gates.GateSafety, "serious adverse event")

		tier, label := c.Classify(p, results)
		if tier != verdict.TierBlack || label != verdict.LabelFail {
			t.Fatalf("p=%.2f: safety failure must force Black/FAIL, got %s/%s", p, tier, label)
		}
	}
}

func TestClassify_PlausibilityFailForcesWorstAtAnyProbability(t *testing.T) {
	c := NewClassifier(policy.DefaultTierTable())

	for _, p := range []float64{0.99, 0.01} {
		results := passingGates()
		results.Plausibility = gates.Fail(gates.GatePlausibility, "forbidden pattern")

		tier, label := c.Classify(p, results)
		if tier != verdict.TierBlack || label != verdict.LabelFail {
			t.Fatalf("p=%.2f: plausibility failure must force Black/FAIL, got %s/%s", p, tier, label)
		}
	}
}

func TestClassify_ExaggerationShiftsTierDown(t *testing.T) {
	c := NewClassifier(policy.DefaultTierTable())

	tests := []struct {
		p         float64
		want      verdict.Tier
		wantLabel verdict.Label
	}{
		{0.95, verdict.TierBronze, verdict.LabelAmber}, // Gold demotes to Bronze
		{0.80, verdict.TierRed, verdict.LabelAmber},    // Silver demotes to Red
		{0.65, verdict.TierRed, verdict.LabelAmber},    // Bronze demotes to Red
		{0.30, verdict.TierRed, verdict.LabelAmber},    // Red has no further demotion
	}
	for _, tt := range tests {
		results := passingGates()
		results.Exaggeration = gates.Flagged(gates.GateExaggeration, "superlative claim")

		tier, label := c.Classify(tt.p, results)
		if tier != tt.want {
			t.Errorf("p=%.2f with exaggeration: expected %s, got %s", tt.p, tt.want, tier)
		}
		if label != tt.wantLabel {
			t.Errorf("p=%.2f with exaggeration: expected label %s, got %s", tt.p, tt.wantLabel, label)
		}
	}
}

func TestClassify_ExaggerationNeverRescuesSafetyFailure(t *testing.T) {
	c := NewClassifier(policy.DefaultTierTable())
	results := passingGates()
	results.Safety = gates.Fail(gates.GateSafety, "contraindication")
	results.Exaggeration = gates.Flagged(gates.GateExaggeration, "superlative claim")

	tier, label := c.Classify(0.95, results)
	if tier != verdict.TierBlack || label != verdict.LabelFail {
		t.Fatalf("expected Black/FAIL, got %s/%s", tier, label)
	}
}
