package governance

import (
	"gotier/domain/gates"
	"gotier/domain/policy"
	"gotier/domain/verdict"
)

// Classifier maps a tail probability and gate verdict onto a tier and label
type Classifier struct {
	table policy.TierTable
}

// NewClassifier creates a classifier over a tier table
func NewClassifier(table policy.TierTable) *Classifier {
	return &Classifier{table: table}
}

// Classify applies the band lookup, then the monotone override, then the
// exaggeration down-shift. The override runs last-wins: a plausibility or
// safety failure forces the worst band regardless of everything else.
func (c *Classifier) Classify(tailProb float64, results gates.ResultSet) (verdict.Tier, verdict.Label) {
	if results.SafetyCritical() {
		worst := c.table.Worst()
		return worst.Tier, worst.Label
	}

	band := c.table.BandFor(tailProb)
	if results.ExaggerationFlagged() && band.DowngradeTo != "" {
		if demoted, ok := c.table.BandByTier(band.DowngradeTo); ok {
			return demoted.Tier, demoted.Label
		}
	}
	return band.Tier, band.Label
}
