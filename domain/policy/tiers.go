package policy

import (
	"sort"

	"gotier/domain/verdict"
)

// TierBand maps a tail-probability band to a tier and label. MinP is the
// band's lower bound and is inclusive: P >= MinP selects the band, so a value
// exactly on a boundary always maps to the higher band.
type TierBand struct {
	MinP  float64       `json:"min_p" yaml:"min_p"`
	Tier  verdict.Tier  `json:"tier" yaml:"tier"`
	Label verdict.Label `json:"label" yaml:"label"`
	// DowngradeTo names the tier an exaggeration flag demotes this band to.
	// Empty means the band cannot be demoted further by a soft flag.
	DowngradeTo verdict.Tier `json:"downgrade_to,omitempty" yaml:"downgrade_to"`
}

// TierTable is the ordered, non-overlapping probability-band table.
// Bands are kept sorted by MinP descending so classification walks from the
// best tier down.
type TierTable struct {
	Version string     `json:"version" yaml:"version"`
	Bands   []TierBand `json:"bands" yaml:"bands"`
}

// Sorted returns the bands ordered best-first (descending MinP)
func (t TierTable) Sorted() []TierBand {
	bands := make([]TierBand, len(t.Bands))
	copy(bands, t.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinP > bands[j].MinP })
	return bands
}

// Worst returns the lowest band (the forced tier under the monotone override)
func (t TierTable) Worst() TierBand {
	bands := t.Sorted()
	return bands[len(bands)-1]
}

// BandFor selects the band for a tail probability. Lower bounds are
// inclusive; probabilities below every band's MinP land in the worst band.
func (t TierTable) BandFor(p float64) TierBand {
	for _, band := range t.Sorted() {
		if p >= band.MinP {
			return band
		}
	}
	return t.Worst()
}

// DefaultTierTable returns the standard five-band table
func DefaultTierTable() TierTable {
	return TierTable{
		Version: "tier-table/1",
		Bands: []TierBand{
			{MinP: 0.90, Tier: verdict.TierGold, Label: verdict.LabelPass, DowngradeTo: verdict.TierBronze},
			{MinP: 0.75, Tier: verdict.TierSilver, Label: verdict.LabelPass, DowngradeTo: verdict.TierRed},
			{MinP: 0.60, Tier: verdict.TierBronze, Label: verdict.LabelAmber, DowngradeTo: verdict.TierRed},
			{MinP: 0.20, Tier: verdict.TierRed, Label: verdict.LabelAmber},
			{MinP: 0.0, Tier: verdict.TierBlack, Label: verdict.LabelFail},
		},
	}
}

// BandByTier looks a band up by its tier name
func (t TierTable) BandByTier(tier verdict.Tier) (TierBand, bool) {
	for _, band := range t.Bands {
		if band.Tier == tier {
			return band, true
		}
	}
	return TierBand{}, false
}
