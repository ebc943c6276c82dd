package ports

import (
	"context"

	"gotier/domain/core"
	"gotier/domain/trust"
)

// TrustOracle answers venue trust queries against a pinned snapshot.
// The snapshot never changes under an oracle instance, so two calls with
// the same venue always return the same score.
type TrustOracle interface {
	// Score returns the fused trust score in [0,1] for a venue.
	// Blacklisted venues score exactly zero. Unknown venues are
	// reported with ok=false and a neutral zero score.
	Score(ctx context.Context, venueID core.VenueID) (score float64, ok bool, err error)

	// Signals exposes the raw snapshot signals for audit output
	Signals(ctx context.Context, venueID core.VenueID) (trust.VenueSignals, bool, error)

	// Snapshot returns the snapshot metadata the oracle is pinned to
	Snapshot() trust.Snapshot
}
