package ports

import (
	"context"

	"gotier/domain/core"
	"gotier/domain/simulation"
	"gotier/domain/verdict"
)

// ReaderPort provides read-only access to the catalog for UI/API
// This ensures the catalog surface cannot write classifications or mutate graph state
type ReaderPort interface {
	// Catalog queries (read-only)
	ListCatalog(ctx context.Context, filters ClassificationFilters) ([]CatalogRow, error)
	GetCatalogEntry(ctx context.Context, entryID core.EntryID) (*CatalogDetail, error)

	// Aggregate statistics for the catalog overview page
	GetCatalogStats(ctx context.Context) (*CatalogStats, error)
}

// CatalogRow is the list-view projection of a classified entry
type CatalogRow struct {
	EntryID  core.EntryID
	Slug     string
	Category string
	Outcome  string
	Tier     verdict.Tier
	Label    verdict.Label
	TailProb float64
	BuiltAt  core.Timestamp
}

// CatalogDetail is the full detail-view projection
type CatalogDetail struct {
	Entry          Entry
	Classification verdict.Classification
	Simulation     simulation.Result
	NStudies       int
	TotalN         int
}

// CatalogStats summarizes the catalog for the overview page
type CatalogStats struct {
	TotalEntries int
	ByTier       map[verdict.Tier]int
	ByCategory   map[string]int
	LastBuiltAt  *core.Timestamp
}
