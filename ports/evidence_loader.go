package ports

import (
	"context"

	"gotier/domain/core"
	"gotier/domain/evidence"
)

// EvidenceLoader reads study rows for an entry from an external source
// (workbook, CSV export, upstream extraction run).
type EvidenceLoader interface {
	// Load reads and returns the raw study rows for an entry.
	// Rows come back unvalidated; the build pipeline normalizes them.
	Load(ctx context.Context, entryID core.EntryID, path string) (*evidence.Set, error)
}
