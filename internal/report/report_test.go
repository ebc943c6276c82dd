package report

import (
	"strings"
	"testing"

	"gotier/domain/core"
	"gotier/domain/gates"
	"gotier/domain/simulation"
	"gotier/domain/verdict"
	"gotier/ports"
)

func sampleDetail() (*ports.CatalogDetail, *simulation.Result) {
	score := 0.82
	sim := &simulation.Result{
		MuHat:                0.34,
		Tau2:                 simulation.TauEstimate{Method: simulation.TauREML, Value: 0.012, Converged: true},
		I2:                   22.5,
		TailProb:             0.71,
		MuCI95:               simulation.Interval{Low: 0.11, High: 0.57},
		PredictionInterval95: simulation.Interval{Low: -0.02, High: 0.70},
		Delta:                0.2,
		Seed:                 42,
		Draws:                10000,
		NStudies:             4,
		TotalN:               612,
	}
	detail := &ports.CatalogDetail{
		Entry: ports.Entry{
			ID:   core.EntryID("entry-1"),
			Slug: "creatine-memory",
		},
		Classification: verdict.Classification{
			EntryID:  core.EntryID("entry-1"),
			Category: "cognition",
			Tier:     verdict.TierBronze,
			Label:    verdict.LabelAmber,
			TailProb: 0.71,
			Gates: gates.ResultSet{
				Plausibility: gates.Result{Gate: gates.GatePlausibility, Outcome: gates.OutcomePass},
				Relevance:    gates.Result{Gate: gates.GateRelevance, Outcome: gates.OutcomePass, Score: &score},
				Trust:        gates.Result{Gate: gates.GateTrust, Outcome: gates.OutcomePass, Score: &score},
				Safety:       gates.Result{Gate: gates.GateSafety, Outcome: gates.OutcomePass},
				Exaggeration: gates.Result{Gate: gates.GateExaggeration, Outcome: gates.OutcomePass},
			},
			PolicyRefs: verdict.PolicyRefs{
				PolicyVersion:    "2026.1",
				TierTableVersion: "v1",
				SnapshotDate:     "2026-08-01",
			},
			PolicyFingerprint: core.NewPolicyFingerprint([]byte("policy")),
			AuditHash:         core.NewAuditHash([]byte("audit")),
			Hint:              "creatine-memory: 4 studies, 71% probability the effect clears the meaningful threshold (Bronze tier)",
		},
		NStudies: 4,
		TotalN:   612,
	}
	return detail, sim
}

func TestMarkdownReportContent(t *testing.T) {
	detail, sim := sampleDetail()
	md := NewRenderer().Markdown(detail, sim)

	for _, want := range []string{
		"# creatine-memory",
		"Tier: Bronze (AMBER)",
		"Studies pooled: 4 (612 subjects)",
		"71.0%",
		"| plausibility | pass |",
		"score 0.82",
		"REML",
		detail.Classification.PolicyFingerprint.Compact(),
		detail.Classification.AuditHash.Compact(),
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestHTMLReportRendersTables(t *testing.T) {
	detail, sim := sampleDetail()
	out := string(NewRenderer().HTML(detail, sim))

	if !strings.Contains(out, "<h1") {
		t.Fatalf("expected heading in HTML output: %s", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Fatalf("expected gates table in HTML output: %s", out)
	}
}

func TestZeroedSimulationOmitsPooledEffect(t *testing.T) {
	detail, sim := sampleDetail()
	sim.Draws = 0
	md := NewRenderer().Markdown(detail, sim)

	if strings.Contains(md, "Pooled effect") {
		t.Fatalf("zeroed simulation should not report a pooled effect:\n%s", md)
	}
}

func TestTailProbDistribution(t *testing.T) {
	rows := []ports.CatalogRow{
		{TailProb: 0.2},
		{TailProb: 0.4},
		{TailProb: 0.6},
		{TailProb: 0.8},
	}
	d := TailProbDistribution(rows)

	if d.Count != 4 {
		t.Fatalf("expected count 4, got %d", d.Count)
	}
	if d.Mean != 0.5 {
		t.Fatalf("expected mean 0.5, got %v", d.Mean)
	}
	if d.Min != 0.2 || d.Max != 0.8 {
		t.Fatalf("unexpected min/max: %v %v", d.Min, d.Max)
	}
	if d.Median != 0.5 {
		t.Fatalf("expected median 0.5, got %v", d.Median)
	}
}

func TestTailProbDistributionEmpty(t *testing.T) {
	d := TailProbDistribution(nil)
	if d.Count != 0 || d.Mean != 0 {
		t.Fatalf("expected zero distribution, got %+v", d)
	}
}
