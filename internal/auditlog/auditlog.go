package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gotier/domain/verdict"
)

// Record is one JSONL audit line, written after every successful build
type Record struct {
	EntryID           string  `json:"entry_id"`
	Category          string  `json:"category"`
	Tier              string  `json:"tier"`
	Label             string  `json:"label"`
	TailProb          float64 `json:"tail_prob"`
	PolicyFingerprint string  `json:"policy_fingerprint"`
	AuditHash         string  `json:"audit_hash"`
	BuiltAt           string  `json:"built_at"`
}

// Writer appends build records to a JSONL file. Appends are serialized so
// concurrent entry builds never interleave lines.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens or creates the audit log at path
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Writer{file: f}, nil
}

// Append writes one classification as a JSONL line
func (w *Writer) Append(c *verdict.Classification) error {
	rec := Record{
		EntryID:           c.EntryID.String(),
		Category:          c.Category,
		Tier:              string(c.Tier),
		Label:             string(c.Label),
		TailProb:          c.TailProb,
		PolicyFingerprint: c.PolicyFingerprint.Compact(),
		AuditHash:         c.AuditHash.Compact(),
		BuiltAt:           c.BuiltAt.String(),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
