package fingerprint

import (
	"gotier/domain/core"
	"gotier/domain/policy"
	"gotier/domain/trust"
)

// PolicyFingerprint hashes the policy configuration together with the trust
// snapshot. Any change to either input, however small, yields a different
// fingerprint, so classifications built under different rules can never be
// confused for each other.
func PolicyFingerprint(p *policy.Policy, snapshot trust.Snapshot) (core.PolicyFingerprint, error) {
	snapHash, err := snapshot.Hash()
	if err != nil {
		return "", err
	}

	payload := struct {
		Policy       *policy.Policy    `json:"policy"`
		SnapshotHash core.SnapshotHash `json:"snapshot_hash"`
	}{Policy: p, SnapshotHash: snapHash}

	data, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	return core.NewPolicyFingerprint(data), nil
}

// VerifyFingerprint compares the fingerprint stamped on a stored artifact
// against the one computed from the currently loaded policy. A mismatch
// means the artifact was built under different rules and must be rebuilt.
func VerifyFingerprint(stored, computed core.PolicyFingerprint) error {
	if stored != computed {
		return core.NewFingerprintMismatchError(stored, computed)
	}
	return nil
}
