package verdict

import (
	"gotier/domain/core"
	"gotier/domain/gates"
)

// Tier is the ordered evidence tier. Higher rank means stronger evidence.
type Tier string

const (
	TierGold   Tier = "Gold"
	TierSilver Tier = "Silver"
	TierBronze Tier = "Bronze"
	TierRed    Tier = "Red"
	TierBlack  Tier = "Black"
)

// Rank returns the tier's position in the ordering, worst first.
// Unknown tiers rank as worst.
func (t Tier) Rank() int {
	switch t {
	case TierGold:
		return 4
	case TierSilver:
		return 3
	case TierBronze:
		return 2
	case TierRed:
		return 1
	default:
		return 0
	}
}

// WorseThan reports whether t is strictly worse than other
func (t Tier) WorseThan(other Tier) bool {
	return t.Rank() < other.Rank()
}

// Label is the pass/uncertain/fail designation carried by a tier
type Label string

const (
	LabelPass  Label = "PASS"
	LabelAmber Label = "AMBER"
	LabelFail  Label = "FAIL"
)

// PolicyRefs names the versioned inputs a classification was derived from
type PolicyRefs struct {
	PolicyVersion     string `json:"policy_version"`
	TierTableVersion  string `json:"tier_table_version"`
	MonteCarloVersion string `json:"monte_carlo_version"`
	SnapshotDate      string `json:"snapshot_date"`
}

// Classification is the final entry artifact. It is derived purely from the
// simulation result, the gate result set, and the policy; on any input change
// it is replaced wholesale, never partially mutated.
type Classification struct {
	EntryID           core.EntryID           `json:"entry_id"`
	Category          string                 `json:"category"`
	Tier              Tier                   `json:"tier"`
	Label             Label                  `json:"label"`
	TailProb          float64                `json:"tail_prob"`
	Gates             gates.ResultSet        `json:"gates"`
	PolicyRefs        PolicyRefs             `json:"policy_refs"`
	PolicyFingerprint core.PolicyFingerprint `json:"policy_fingerprint"`
	AuditHash         core.AuditHash         `json:"audit_hash"`
	Hint              string                 `json:"hint,omitempty"`
	BuiltAt           core.Timestamp         `json:"built_at"`
}
