package fingerprint

import (
	"gotier/domain/core"
	"gotier/domain/gates"
	"gotier/domain/simulation"
	"gotier/domain/verdict"
)

// AuditHash covers one entry's deterministic inputs and outputs: the
// evidence content, the simulation result, the gate verdict, and the final
// tier/label. Recomputing the pipeline from the same inputs must reproduce
// this hash bit for bit; a mismatch means tampering or drift.
func AuditHash(evidenceHash core.EvidenceHash, sim *simulation.Result, results gates.ResultSet, tier verdict.Tier, label verdict.Label) (core.AuditHash, error) {
	payload := struct {
		EvidenceHash core.EvidenceHash  `json:"evidence_hash"`
		Simulation   *simulation.Result `json:"simulation"`
		Gates        gates.ResultSet    `json:"gates"`
		Tier         verdict.Tier       `json:"tier"`
		Label        verdict.Label      `json:"label"`
	}{
		EvidenceHash: evidenceHash,
		Simulation:   sim,
		Gates:        results,
		Tier:         tier,
		Label:        label,
	}

	data, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	return core.NewAuditHash(data), nil
}

// Verify recomputes the audit hash and compares it to the stored one
func Verify(stored core.AuditHash, evidenceHash core.EvidenceHash, sim *simulation.Result, results gates.ResultSet, tier verdict.Tier, label verdict.Label) error {
	computed, err := AuditHash(evidenceHash, sim, results, tier, label)
	if err != nil {
		return err
	}
	if computed != stored {
		return core.ErrAuditHashMismatch
	}
	return nil
}
