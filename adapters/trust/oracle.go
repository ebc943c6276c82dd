package trust

import (
	"context"
	"math"

	"gotier/domain/core"
	"gotier/domain/policy"
	"gotier/domain/trust"
)

// SnapshotOracle scores venues against one pinned trust snapshot.
// The blacklist pre-mask runs before any fusion: a retracted, predatory or
// hijacked venue scores exactly 0 no matter how strong its other signals are.
type SnapshotOracle struct {
	snapshot trust.Snapshot
	rules    policy.TrustRules
}

// NewSnapshotOracle creates an oracle pinned to a snapshot
func NewSnapshotOracle(snapshot trust.Snapshot, rules policy.TrustRules) *SnapshotOracle {
	return &SnapshotOracle{snapshot: snapshot, rules: rules}
}

// Score returns the fused trust score in [0,1] for a venue
func (o *SnapshotOracle) Score(_ context.Context, venueID core.VenueID) (float64, bool, error) {
	sig, ok := o.snapshot.Lookup(venueID)
	if !ok {
		return 0, false, nil
	}
	if sig.Blacklisted() {
		return 0, true, nil
	}

	raw := o.rules.Weights.Impact*sig.ImpactPercentile +
		o.rules.Weights.Secondary*sig.SecondaryPercentile
	if sig.Listed {
		raw += o.rules.Weights.Listed
	}
	if sig.Certified {
		raw += o.rules.Weights.Certified
	}

	squashed := sigmoid(o.rules.SquashSlope*raw - o.rules.SquashShift)
	return clip01(squashed), true, nil
}

// Signals exposes the raw snapshot signals for audit output
func (o *SnapshotOracle) Signals(_ context.Context, venueID core.VenueID) (trust.VenueSignals, bool, error) {
	sig, ok := o.snapshot.Lookup(venueID)
	return sig, ok, nil
}

// Snapshot returns the snapshot the oracle is pinned to
func (o *SnapshotOracle) Snapshot() trust.Snapshot {
	return o.snapshot
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
