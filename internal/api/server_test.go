package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotier/adapters/trust"
	"gotier/app"
	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/domain/policy"
	"gotier/domain/simulation"
	domaintrust "gotier/domain/trust"
	"gotier/domain/verdict"
	apperrors "gotier/internal/errors"
	"gotier/internal/rebuild"
	"gotier/ports"
)

type memoryEntries struct {
	entries map[core.EntryID]*ports.Entry
}

func (m *memoryEntries) SaveEntry(_ context.Context, e *ports.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *memoryEntries) GetEntry(_ context.Context, id core.EntryID) (*ports.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, core.ErrEntryNotFound
	}
	return e, nil
}

func (m *memoryEntries) ListEntries(_ context.Context, _ ports.EntryFilters) ([]*ports.Entry, error) {
	var out []*ports.Entry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryEntries) GetEvidence(_ context.Context, id core.EntryID) (*evidence.Set, error) {
	e, err := m.GetEntry(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return &e.Evidence, nil
}

type memoryClassifications struct {
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
	m.saved[c.EntryID] = c
	m.sims[c.EntryID] = sim
	return nil
}

func (m *memoryClassifications) GetClassification(_ context.Context, id core.EntryID) (*verdict.Classification, error) {
	c, ok := m.saved[id]
	if !ok {
		return nil, core.ErrClassificationNotFound
	}
	return c, nil
}

func (m *memoryClassifications) GetSimulation(_ context.Context, id core.EntryID) (*simulation.Result, error) {
	s, ok := m.sims[id]
	if !ok {
		return nil, core.ErrClassificationNotFound
	}
	return s, nil
}

func (m *memoryClassifications) ListClassifications(_ context.Context, _ ports.ClassificationFilters) ([]*verdict.Classification, error) {
	var out []*verdict.Classification
	for _, c := range m.saved {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryClassifications) TierCounts(_ context.Context) (map[verdict.Tier]int, error) {
	counts := make(map[verdict.Tier]int)
	for _, c := range m.saved {
		counts[c.Tier]++
	}
	return counts, nil
}

func apiPolicy() *policy.Policy {
	return &policy.Policy{
		Version: "policy/test",
		Categories: map[string]policy.CategoryPolicy{
			"cognition": {Delta: 0.2, BenefitDirection: 1, MinStudies: 2, OutcomeTerms: []string{"memory"}},
		},
		MonteCarlo: policy.MonteCarloConfig{Seed: 42, Draws: 10000, TauMethod: "reml", Version: "mc/1"},
		Tiers:      policy.DefaultTierTable(),
		Gates: policy.GateRules{
			Version:   "gates/1",
			Relevance: policy.RelevanceRules{Threshold: 0.5},
			Trust: policy.TrustRules{
				Threshold:   0.3,
				Weights:     policy.TrustWeights{Impact: 0.35, Secondary: 0.35, Listed: 0.15, Certified: 0.05},
				SquashSlope: 3.0,
				SquashShift: 1.5,
			},
		},
	}
}

func study(id string, effect float64) evidence.StudyRecord {
	return evidence.StudyRecord{
		StudyID:    core.StudyID(id),
		Year:       2023,
		Design:     evidence.DesignRandomized,
		EffectType: evidence.EffectSMD,
		Effect:     effect,
		CILow:      effect - 0.4,
		CIHigh:     effect + 0.4,
		NTreat:     60,
		NCtrl:      60,
		RiskOfBias: evidence.BiasLow,
		VenueID:    core.VenueID("venue-good"),
		Outcome:    "working memory",
		Population: "healthy adults",
	}
}

func newTestAPI(t *testing.T) (*Server, *memoryEntries) {
	t.Helper()
	p := apiPolicy()
	snap := domaintrust.Snapshot{
		Date:    "2026-01-01",
		Version: "v1",
		Venues: map[core.VenueID]domaintrust.VenueSignals{
			"venue-good": {ImpactPercentile: 0.9, SecondaryPercentile: 0.85, Listed: true, Certified: true},
		},
	}
	oracle := trust.NewSnapshotOracle(snap, p.Gates.Trust)
	classifications := newMemoryClassifications()
	svc, err := app.NewBuildService(p, snap, oracle, classifications)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	entries := &memoryEntries{entries: make(map[core.EntryID]*ports.Entry)}
	entries.entries["entry-1"] = &ports.Entry{
		ID:       "entry-1",
		Slug:     "bacopa-memory",
		Category: "cognition",
		Outcome:  "improves memory in healthy adults",
		Evidence: evidence.Set{EntryID: "entry-1", Rows: []evidence.StudyRecord{
			study("s1", 0.45), study("s2", 0.48), study("s3", 0.44),
		}},
	}

	graph := rebuild.NewGraph()
	manager := rebuild.NewManager(graph, func(ctx context.Context, id core.EntryID) (rebuild.Inputs, error) {
		entry, err := entries.GetEntry(ctx, id)
		if err != nil {
			return rebuild.Inputs{}, err
		}
		if _, err := svc.BuildEntry(ctx, entry); err != nil {
			return rebuild.Inputs{}, err
		}
		hash, venues, version := svc.GraphInputs(entry)
		return rebuild.Inputs{EvidenceHash: hash, Category: entry.Category, SnapshotVersion: version, Venues: venues}, nil
	}, 2)

	return NewServer(svc, entries, classifications, graph, manager, nil), entries
}

func TestFingerprintEndpoint(t *testing.T) {
	server, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fingerprint", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["fingerprint"]) != 64 {
		t.Fatalf("expected full sha256 hex fingerprint, got %q", body["fingerprint"])
	}
	if len(body["compact"]) != 18 {
		t.Fatalf("expected compact 0x form, got %q", body["compact"])
	}
}

func TestBuildEndpoint(t *testing.T) {
	server, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/entries/entry-1/build", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Classification struct {
			Tier     string  `json:"tier"`
			TailProb float64 `json:"tail_prob"`
		} `json:"classification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Classification.Tier == "" {
		t.Fatalf("expected a tier in the response: %s", w.Body.String())
	}
	if body.Classification.TailProb <= 0 {
		t.Fatalf("expected a positive tail probability, got %v", body.Classification.TailProb)
	}
}

func TestBuildEndpointUnknownEntry(t *testing.T) {
	server, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/entries/missing/build", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != apperrors.CodeNotFound {
		t.Fatalf("expected error code %s, got %q", apperrors.CodeNotFound, body["code"])
	}
}

func TestGetClassificationEndpoint(t *testing.T) {
	server, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/entries/entry-1/build", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("build: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classifications/entry-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Classification struct {
			EntryID string `json:"entry_id"`
			Tier    string `json:"tier"`
		} `json:"classification"`
		Stale bool `json:"stale"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Classification.EntryID != "entry-1" {
		t.Fatalf("expected entry-1, got %q", body.Classification.EntryID)
	}
	if body.Classification.Tier == "" {
		t.Fatalf("expected a tier in the stored classification: %s", w.Body.String())
	}
	if body.Stale {
		t.Fatalf("classification built under the live policy must not be stale")
	}
}

func TestGetClassificationEndpointNotBuilt(t *testing.T) {
	server, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classifications/entry-1", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRebuildEndpoint(t *testing.T) {
	server, _ := newTestAPI(t)

	// Track the entry as never built so the rebuild pass picks it up.
	server.graph.Track("entry-1", rebuild.Inputs{Category: "cognition"})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rebuild", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Rebuilt []string          `json:"rebuilt"`
		Failed  map[string]string `json:"failed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rebuilt) != 1 || body.Rebuilt[0] != "entry-1" {
		t.Fatalf("expected entry-1 rebuilt, got %+v", body)
	}
	if len(body.Failed) != 0 {
		t.Fatalf("expected no failures, got %+v", body.Failed)
	}
}
