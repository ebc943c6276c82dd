package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash represents a cryptographic hash (sha256, hex encoded)
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Compact returns the short display form: "0x" + first 16 hex chars.
// Audit logs and entry payloads carry the compact form; the full digest
// is retained alongside it wherever tamper checks are performed.
func (h Hash) Compact() string {
	if len(h) < 16 {
		return "0x" + string(h)
	}
	return fmt.Sprintf("0x%s", string(h)[:16])
}

// Domain-specific hash types
type (
	// PolicyFingerprint identifies the exact policy + trust snapshot pair
	// a classification was produced under.
	PolicyFingerprint Hash
	// EvidenceHash identifies the content of one entry's evidence set.
	EvidenceHash Hash
	// SnapshotHash identifies a source-trust snapshot's venue table.
	SnapshotHash Hash
	// AuditHash covers one entry's deterministic inputs and outputs.
	AuditHash Hash
)

// Constructors
func NewPolicyFingerprint(data []byte) PolicyFingerprint { return PolicyFingerprint(NewHash(data)) }
func NewEvidenceHash(data []byte) EvidenceHash           { return EvidenceHash(NewHash(data)) }
func NewSnapshotHash(data []byte) SnapshotHash           { return SnapshotHash(NewHash(data)) }
func NewAuditHash(data []byte) AuditHash                 { return AuditHash(NewHash(data)) }

// String conversions
func (h PolicyFingerprint) String() string { return Hash(h).String() }
func (h EvidenceHash) String() string      { return Hash(h).String() }
func (h SnapshotHash) String() string      { return Hash(h).String() }
func (h AuditHash) String() string         { return Hash(h).String() }

// Compact conversions
func (h PolicyFingerprint) Compact() string { return Hash(h).Compact() }
func (h AuditHash) Compact() string         { return Hash(h).Compact() }
