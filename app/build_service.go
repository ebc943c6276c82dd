package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"gotier/adapters/stats/meta"
	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/domain/policy"
	"gotier/domain/simulation"
	"gotier/domain/trust"
	"gotier/domain/verdict"
	"gotier/internal/fingerprint"
	"gotier/internal/governance"
	"gotier/internal/validation"
	"gotier/ports"
)

// BuildService runs the classification pipeline for one entry at a time:
// validate, gate, pool, simulate, classify, fingerprint. The policy and
// trust snapshot are fixed at construction; a new policy means a new service
// with a new fingerprint.
type BuildService struct {
	policy      *policy.Policy
	snapshot    trust.Snapshot
	fingerprint core.PolicyFingerprint

	validator  *validation.Validator
	engine     *governance.Engine
	classifier *governance.Classifier
	simulator  *meta.Simulator

	classifications ports.ClassificationRepository
}

// BuildResult is one entry's complete pipeline output. Screened lists the
// studies the relevance and trust gates excluded from pooling.
type BuildResult struct {
	Classification *verdict.Classification
	Simulation     *simulation.Result
	Screened       []core.StudyID
}

// NewBuildService wires the pipeline under one policy and snapshot
func NewBuildService(p *policy.Policy, snapshot trust.Snapshot, oracle ports.TrustOracle, classifications ports.ClassificationRepository) (*BuildService, error) {
	fp, err := fingerprint.PolicyFingerprint(p, snapshot)
	if err != nil {
		return nil, fmt.Errorf("policy fingerprint: %w", err)
	}

	engine, err := governance.NewEngine(p.Gates, oracle)
	if err != nil {
		return nil, fmt.Errorf("gate engine: %w", err)
	}

	return &BuildService{
		policy:          p,
		snapshot:        snapshot,
		fingerprint:     fp,
		validator:       validation.NewValidator(),
		engine:          engine,
		classifier:      governance.NewClassifier(p.Tiers),
		simulator:       meta.NewSimulator(p.MonteCarlo),
		classifications: classifications,
	}, nil
}

// Fingerprint returns the policy fingerprint every build of this service
// stamps onto its output.
func (s *BuildService) Fingerprint() core.PolicyFingerprint {
	return s.fingerprint
}

// BuildEntry runs the full pipeline for one entry. Failures abort this entry
// only; they never leave a partial classification behind.
func (s *BuildService) BuildEntry(ctx context.Context, entry *ports.Entry) (*BuildResult, error) {
	start := time.Now()

	cat, ok := s.policy.Category(entry.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCategoryNotFound, entry.Category)
	}

	validated, err := s.validator.Validate(&entry.Evidence, cat)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", entry.ID, err)
	}

	eval, err := s.engine.Evaluate(ctx, governance.Input{
		Claim:      entry.Outcome,
		Category:   entry.Category,
		Policy:     cat,
		Evidence:   &entry.Evidence,
		Normalized: validated.Normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("entry %s gates: %w", entry.ID, err)
	}

	var sim *simulation.Result
	if eval.Results.SafetyCritical() || len(eval.Included) == 0 {
		// A rejected or fully screened-out entry carries a zeroed simulation:
		// the tier comes from the override or the bottom band, never from draws.
		sim = s.zeroedSimulation(cat, len(validated.Normalized))
	} else {
		sim, err = s.simulator.Run(eval.Included, cat.Delta, s.fingerprint)
		if err != nil {
			return nil, fmt.Errorf("entry %s simulation: %w", entry.ID, err)
		}
		sim.TotalN = totalSubjects(eval.Included)
	}

	tier, label := s.classifier.Classify(sim.TailProb, eval.Results)

	evidenceHash := entry.Evidence.ContentHash()
	auditHash, err := fingerprint.AuditHash(evidenceHash, sim, eval.Results, tier, label)
	if err != nil {
		return nil, fmt.Errorf("entry %s audit hash: %w", entry.ID, err)
	}

	classification := &verdict.Classification{
		EntryID:  entry.ID,
		Category: entry.Category,
		Tier:     tier,
		Label:    label,
		TailProb: sim.TailProb,
		Gates:    eval.Results,
		PolicyRefs: verdict.PolicyRefs{
			PolicyVersion:     s.policy.Version,
			TierTableVersion:  s.policy.Tiers.Version,
			MonteCarloVersion: s.policy.MonteCarlo.Version,
			SnapshotDate:      s.snapshot.Date,
		},
		PolicyFingerprint: s.fingerprint,
		AuditHash:         auditHash,
		Hint:              hintLine(entry, tier, label, sim),
		BuiltAt:           core.Now(),
	}

	if s.classifications != nil {
		if err := s.classifications.SaveClassification(ctx, classification, sim); err != nil {
			return nil, fmt.Errorf("entry %s persist: %w", entry.ID, err)
		}
	}

	log.Printf("build: entry %s classified %s/%s (p=%.3f, %d studies, %s)",
		entry.ID, tier, label, sim.TailProb, sim.NStudies, time.Since(start).Round(time.Millisecond))

	return &BuildResult{
		Classification: classification,
		Simulation:     sim,
		Screened:       screenedStudies(validated.Normalized, eval.Included),
	}, nil
}

// screenedStudies lists the normalized rows the gates kept out of the pool
func screenedStudies(normalized, included []evidence.NormalizedEffect) []core.StudyID {
	kept := make(map[core.StudyID]bool, len(included))
	for _, r := range included {
		kept[r.StudyID] = true
	}
	var out []core.StudyID
	for _, r := range normalized {
		if !kept[r.StudyID] {
			out = append(out, r.StudyID)
		}
	}
	return out
}

// GraphInputs derives the dependency-graph inputs the entry's artifacts now
// depend on, for staleness tracking across builds.
func (s *BuildService) GraphInputs(entry *ports.Entry) (core.EvidenceHash, []core.VenueID, string) {
	return entry.Evidence.ContentHash(), entry.Evidence.VenueIDs(), s.snapshot.Version
}

func (s *BuildService) zeroedSimulation(cat policy.CategoryPolicy, nStudies int) *simulation.Result {
	return &simulation.Result{
		Delta:             cat.Delta,
		Seed:              s.policy.MonteCarlo.Seed,
		Draws:             0,
		NStudies:          nStudies,
		Tau2:              simulation.TauEstimate{Method: simulation.TauREML, Value: 0, Converged: true},
		PolicyFingerprint: s.fingerprint,
	}
}

func totalSubjects(rows []evidence.NormalizedEffect) int {
	total := 0
	for _, r := range rows {
		total += r.Weight
	}
	return total
}

// hintLine is the one-sentence summary surfaced next to the tier badge
func hintLine(entry *ports.Entry, tier verdict.Tier, label verdict.Label, sim *simulation.Result) string {
	if label == verdict.LabelFail {
		return fmt.Sprintf("%s: evidence does not support this claim (%s tier)", entry.Slug, tier)
	}
	return fmt.Sprintf("%s: %d studies, %.0f%% probability the effect clears the meaningful threshold (%s tier)",
		entry.Slug, sim.NStudies, sim.TailProb*100, tier)
}
