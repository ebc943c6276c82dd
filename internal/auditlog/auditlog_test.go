package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gotier/domain/core"
	"gotier/domain/verdict"
)

func classification(id string, tier verdict.Tier) *verdict.Classification {
	return &verdict.Classification{
		EntryID:           core.EntryID(id),
		Category:          "cognition",
		Tier:              tier,
		Label:             verdict.LabelAmber,
		TailProb:          0.71,
		PolicyFingerprint: core.NewPolicyFingerprint([]byte("policy")),
		AuditHash:         core.NewAuditHash([]byte("audit")),
		BuiltAt:           core.Now(),
	}
}

func TestAppendWritesOneLinePerBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := w.Append(classification("entry-1", verdict.TierBronze)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(classification("entry-2", verdict.TierGold)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EntryID != "entry-1" || records[1].EntryID != "entry-2" {
		t.Fatalf("records out of order: %+v", records)
	}
	if records[0].PolicyFingerprint[:2] != "0x" || len(records[0].PolicyFingerprint) != 18 {
		t.Fatalf("expected compact fingerprint, got %q", records[0].PolicyFingerprint)
	}
}

func TestOpenAppendsToExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	w, _ := Open(path)
	_ = w.Append(classification("entry-1", verdict.TierRed))
	_ = w.Close()

	w2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = w2.Append(classification("entry-2", verdict.TierRed))
	_ = w2.Close()

	data, _ := os.ReadFile(path)
	f, lines := data, 0
	for _, b := range f {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected the second writer to append, got %d lines", lines)
	}
}
