package ports

import (
	"context"

	"gotier/domain/core"
	"gotier/domain/evidence"
)

// EntryRepository defines the interface for catalog entry data operations
type EntryRepository interface {
	// SaveEntry persists an entry with its evidence rows
	SaveEntry(ctx context.Context, entry *Entry) error

	// GetEntry retrieves an entry by its ID
	GetEntry(ctx context.Context, entryID core.EntryID) (*Entry, error)

	// ListEntries returns entries filtered by category, optionally limited
	ListEntries(ctx context.Context, filters EntryFilters) ([]*Entry, error)

	// GetEvidence retrieves the evidence set for an entry
	GetEvidence(ctx context.Context, entryID core.EntryID) (*evidence.Set, error)
}

// Entry is a catalog entry: an intervention/outcome pair with its evidence
type Entry struct {
	ID        core.EntryID
	Slug      string
	Category  string
	Outcome   string
	Evidence  evidence.Set
	CreatedAt core.Timestamp
	UpdatedAt core.Timestamp
}

// EntryFilters for querying entries
type EntryFilters struct {
	Category *string
	Limit    int
	Offset   int
}
