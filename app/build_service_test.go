package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gotier/adapters/trust"
	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/domain/policy"
	"gotier/domain/simulation"
	domaintrust "gotier/domain/trust"
	"gotier/domain/verdict"
	"gotier/internal/validation"
	"gotier/ports"
)

type memoryClassifications struct {
	mu    sync.Mutex
	saved map[core.EntryID]*verdict.Classification
	sims  map[core.EntryID]*simulation.Result
}

func newMemoryClassifications() *memoryClassifications {
	return &memoryClassifications{
		saved: make(map[core.EntryID]*verdict.Classification),
		sims:  make(map[core.EntryID]*simulation.Result),
	}
}

func (m *memoryClassifications) SaveClassification(_ context.Context, c *verdict.Classification, sim *simulation.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[c.EntryID] = c
	m.sims[c.EntryID] = sim
	return nil
}

func (m *memoryClassifications) GetClassification(_ context.Context, id core.EntryID) (*verdict.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.saved[id]
	if !ok {
		return nil, core.ErrClassificationNotFound
	}
	return c, nil
}

func (m *memoryClassifications) GetSimulation(_ context.Context, id core.EntryID) (*simulation.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sims[id]
	if !ok {
		return nil, core.ErrClassificationNotFound
	}
	return s, nil
}

func (m *memoryClassifications) ListClassifications(_ context.Context, _ ports.ClassificationFilters) ([]*verdict.Classification, error) {
	return nil, nil
}

func (m *memoryClassifications) TierCounts(_ context.Context) (map[verdict.Tier]int, error) {
	return nil, nil
}

func testPolicy() *policy.Policy {
	return &policy.Policy{
		Version: "policy/test",
		Categories: map[string]policy.CategoryPolicy{
			"cognition": {
				Delta:            0.2,
				BenefitDirection: 1,
				MinStudies:       2,
				OutcomeTerms:     []string{"memory"},
			},
		},
		MonteCarlo: policy.MonteCarloConfig{Seed: 42, Draws: 10000, TauMethod: "reml", Version: "mc/1"},
		Tiers:      policy.DefaultTierTable(),
		Gates: policy.GateRules{
			Version: "gates/1",
			Forbidden: []policy.ForbiddenPattern{
				{ID: "quantum-healing", Pattern: `quantum\s+healing`, Reason: "pseudoscientific mechanism"},
			},
			Relevance: policy.RelevanceRules{Threshold: 0.5},
			Trust: policy.TrustRules{
				Threshold:   0.3,
				Weights:     policy.TrustWeights{Impact: 0.35, Secondary: 0.35, Listed: 0.15, Certified: 0.05},
				SquashSlope: 3.0,
				SquashShift: 1.5,
			},
			Safety: policy.SafetyRules{
				SeriousAEPatterns: []string{"hepatotoxicity"},
			},
			Exaggeration: []policy.ExaggerationPattern{
				{ID: "cure-all", Pattern: `\bmiracle\b`},
			},
		},
	}
}

func testSnapshot() domaintrust.Snapshot {
	return domaintrust.Snapshot{
		Date:    "2026-01-01",
		Version: "v3",
		Venues: map[core.VenueID]domaintrust.VenueSignals{
			"venue-good": {ImpactPercentile: 0.9, SecondaryPercentile: 0.85, Listed: true, Certified: true},
			"venue-bad":  {ImpactPercentile: 0.9, Retracted: true},
		},
	}
}

func newTestService(t *testing.T, repo ports.ClassificationRepository) *BuildService {
	t.Helper()
	p := testPolicy()
	snap := testSnapshot()
	oracle := trust.NewSnapshotOracle(snap, p.Gates.Trust)
	svc, err := NewBuildService(p, snap, oracle, repo)
	if err != nil {
		t.Fatalf("new build service: %v", err)
	}
	return svc
}

func memoryStudy(id string, effect, lo, hi float64) evidence.StudyRecord {
	return evidence.StudyRecord{
		StudyID:    core.StudyID(id),
		Year:       2023,
		Design:     evidence.DesignRandomized,
		EffectType: evidence.EffectSMD,
		Effect:     effect,
		CILow:      lo,
		CIHigh:     hi,
		NTreat:     60,
		NCtrl:      60,
		RiskOfBias: evidence.BiasLow,
		VenueID:    core.VenueID("venue-good"),
		Outcome:    "working memory",
		Population: "healthy adults",
	}
}

func testEntry(id string, rows ...evidence.StudyRecord) *ports.Entry {
	return &ports.Entry{
		ID:       core.EntryID(id),
		Slug:     id,
		Category: "cognition",
		Outcome:  "improves memory in healthy adults",
		Evidence: evidence.Set{EntryID: core.EntryID(id), Rows: rows},
	}
}

func TestBuildEntry_ModerateConcordantEvidence(t *testing.T) {
	repo := newMemoryClassifications()
	svc := newTestService(t, repo)

	// Three concordant studies with wide intervals: meaningful but not
	// conclusive evidence against delta=0.2.
	entry := testEntry("ashwagandha-memory",
		memoryStudy("s1", 0.35, 0.35-1.2628, 0.35+1.2628),
		memoryStudy("s2", 0.34, 0.34-1.2628, 0.34+1.2628),
		memoryStudy("s3", 0.34, 0.34-1.2628, 0.34+1.2628),
	)

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := res.Classification
	if c.TailProb < 0.55 || c.TailProb > 0.75 {
		t.Fatalf("expected moderate tail probability, got %.4f", c.TailProb)
	}
	if c.Tier != verdict.TierBronze || c.Label != verdict.LabelAmber {
		t.Fatalf("expected Bronze/AMBER for moderate evidence, got %s/%s", c.Tier, c.Label)
	}
	if res.Simulation.Tau2.Value > 0.05 {
		t.Fatalf("expected near-zero between-study variance, got %.4f", res.Simulation.Tau2.Value)
	}
	if c.PolicyFingerprint != svc.Fingerprint() {
		t.Fatal("classification must carry the service fingerprint")
	}
	if c.AuditHash == "" {
		t.Fatal("classification must carry an audit hash")
	}

	saved, err := repo.GetClassification(context.Background(), entry.ID)
	if err != nil || saved.Tier != c.Tier {
		t.Fatalf("classification not persisted correctly: %v", err)
	}
}

func TestBuildEntry_DeterministicAuditHash(t *testing.T) {
	svc := newTestService(t, nil)
	entry := testEntry("det-entry",
		memoryStudy("s1", 0.35, -0.1, 0.8),
		memoryStudy("s2", 0.30, -0.2, 0.8),
	)

	first, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := svc.BuildEntry(context.Background(), entry)
		if err != nil {
			t.Fatalf("rebuild %d: %v", i, err)
		}
		if again.Classification.AuditHash != first.Classification.AuditHash {
			t.Fatal("identical inputs must reproduce the audit hash bit for bit")
		}
		if again.Classification.TailProb != first.Classification.TailProb {
			t.Fatal("identical inputs must reproduce the tail probability")
		}
	}
}

func TestBuildEntry_SiblingIsolation(t *testing.T) {
	svc := newTestService(t, nil)
	sibling := testEntry("sibling",
		memoryStudy("s1", 0.35, -0.1, 0.8),
		memoryStudy("s2", 0.30, -0.2, 0.8),
	)

	before, err := svc.BuildEntry(context.Background(), sibling)
	if err != nil {
		t.Fatalf("build sibling: %v", err)
	}

	// Building and editing a different entry must not move the sibling.
	edited := testEntry("edited",
		memoryStudy("x1", 0.50, 0.1, 0.9),
		memoryStudy("x2", 0.55, 0.2, 0.9),
	)
	if _, err := svc.BuildEntry(context.Background(), edited); err != nil {
		t.Fatalf("build edited: %v", err)
	}

	after, err := svc.BuildEntry(context.Background(), sibling)
	if err != nil {
		t.Fatalf("rebuild sibling: %v", err)
	}
	if after.Classification.AuditHash != before.Classification.AuditHash {
		t.Fatal("editing one entry must not change a sibling's audit hash")
	}
}

func TestBuildEntry_ForbiddenClaimShortCircuits(t *testing.T) {
	svc := newTestService(t, nil)
	entry := testEntry("quantum",
		memoryStudy("s1", 0.9, 0.7, 1.1),
		memoryStudy("s2", 0.9, 0.7, 1.1),
	)
	entry.Outcome = "quantum healing improves memory"

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	c := res.Classification
	if c.Tier != verdict.TierBlack || c.Label != verdict.LabelFail {
		t.Fatalf("expected Black/FAIL, got %s/%s", c.Tier, c.Label)
	}
	if res.Simulation.Draws != 0 {
		t.Fatal("safety-critical entries must not consume draws")
	}
}

func TestBuildEntry_SeriousAdverseEventForcesFail(t *testing.T) {
	svc := newTestService(t, nil)
	bad := memoryStudy("s1", 0.9, 0.7, 1.1)
	bad.AdverseEvents = "hepatotoxicity in two participants"
	entry := testEntry("risky", bad, memoryStudy("s2", 0.9, 0.7, 1.1))

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Classification.Tier != verdict.TierBlack {
		t.Fatalf("expected Black for adverse-event failure at any probability, got %s", res.Classification.Tier)
	}
}

func TestBuildEntry_ExaggerationDownshiftsStrongEvidence(t *testing.T) {
	svc := newTestService(t, nil)
	// Tight, large effects: tail probability lands in the Gold band.
	entry := testEntry("miracle-brand",
		memoryStudy("s1", 0.60, 0.45, 0.75),
		memoryStudy("s2", 0.58, 0.44, 0.72),
		memoryStudy("s3", 0.62, 0.47, 0.77),
	)
	entry.Outcome = "miracle supplement improves memory"

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Classification.TailProb < 0.90 {
		t.Fatalf("scenario expects Gold-band probability, got %.4f", res.Classification.TailProb)
	}
	if res.Classification.Tier != verdict.TierBronze {
		t.Fatalf("expected exaggeration to demote Gold to Bronze, got %s", res.Classification.Tier)
	}
}

func TestBuildEntry_UnknownCategoryRejected(t *testing.T) {
	svc := newTestService(t, nil)
	entry := testEntry("unknown-cat", memoryStudy("s1", 0.3, 0.1, 0.5), memoryStudy("s2", 0.3, 0.1, 0.5))
	entry.Category = "nonexistent"

	if _, err := svc.BuildEntry(context.Background(), entry); !core.IsNotFoundError(err) {
		t.Fatalf("expected category not found, got %v", err)
	}
}

func TestBuildEntry_InsufficientEvidenceAborts(t *testing.T) {
	svc := newTestService(t, nil)
	entry := testEntry("thin", memoryStudy("s1", 0.3, 0.1, 0.5))

	if _, err := svc.BuildEntry(context.Background(), entry); !core.IsEvidenceError(err) {
		t.Fatalf("expected insufficient evidence, got %v", err)
	}
}

func TestBuildEntry_MalformedRowAbortsEntry(t *testing.T) {
	svc := newTestService(t, nil)
	// Two sound rows plus one with an interval that excludes its point
	// estimate. Enough rows survive the bad one, but a broken table is a
	// curation error and must not be pooled around.
	entry := testEntry("broken-table",
		memoryStudy("s1", 0.35, -0.1, 0.8),
		memoryStudy("s2", 0.30, -0.2, 0.8),
		memoryStudy("s3", 0.30, 0.5, 0.8),
	)

	_, err := svc.BuildEntry(context.Background(), entry)
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for malformed row, got %v", err)
	}
	if len(verr.Rows) != 1 || verr.Rows[0].StudyID != core.StudyID("s3") {
		t.Fatalf("expected s3 named, got %+v", verr.Rows)
	}
	if !core.IsEvidenceError(err) {
		t.Fatalf("validation failure must read as an evidence error, got %v", err)
	}
}

func TestBuildEntry_ScreenedRowsReported(t *testing.T) {
	svc := newTestService(t, nil)
	retracted := memoryStudy("s3", 0.5, 0.3, 0.7)
	retracted.VenueID = core.VenueID("venue-bad")
	entry := testEntry("mixed-venues",
		memoryStudy("s1", 0.35, -0.1, 0.8),
		memoryStudy("s2", 0.30, -0.2, 0.8),
		retracted,
	)

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Screened) != 1 || res.Screened[0] != core.StudyID("s3") {
		t.Fatalf("expected s3 screened from pooling, got %+v", res.Screened)
	}
}

func TestBuildEntry_AllRowsBlacklistedClassifiesBlack(t *testing.T) {
	svc := newTestService(t, nil)
	s1 := memoryStudy("s1", 0.5, 0.3, 0.7)
	s1.VenueID = core.VenueID("venue-bad")
	s2 := memoryStudy("s2", 0.5, 0.3, 0.7)
	s2.VenueID = core.VenueID("venue-bad")
	entry := testEntry("all-retracted", s1, s2)

	res, err := svc.BuildEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Classification.Tier != verdict.TierBlack {
		t.Fatalf("fully masked evidence must classify Black, got %s", res.Classification.Tier)
	}
	if res.Classification.Gates.Trust.Score == nil || *res.Classification.Gates.Trust.Score != 0 {
		t.Fatal("trust score must be exactly zero when every venue is blacklisted")
	}
}
