package ports

import (
	"context"

	"gotier/domain/core"
	"gotier/domain/simulation"
	"gotier/domain/verdict"
)

// ClassificationRepository defines the interface for classification persistence.
// A build writes the classification and its simulation result together;
// partial rows are never visible to readers.
type ClassificationRepository interface {
	// SaveClassification persists a classification and its simulation result atomically
	SaveClassification(ctx context.Context, c *verdict.Classification, sim *simulation.Result) error

	// GetClassification retrieves the latest classification for an entry
	GetClassification(ctx context.Context, entryID core.EntryID) (*verdict.Classification, error)

	// GetSimulation retrieves the simulation result behind a classification
	GetSimulation(ctx context.Context, entryID core.EntryID) (*simulation.Result, error)

	// ListClassifications returns classifications matching the filters
	ListClassifications(ctx context.Context, filters ClassificationFilters) ([]*verdict.Classification, error)

	// TierCounts returns the number of classifications per tier
	TierCounts(ctx context.Context) (map[verdict.Tier]int, error)
}

// ClassificationFilters for querying classifications
type ClassificationFilters struct {
	Category *string
	Tier     *verdict.Tier
	Label    *verdict.Label
	Limit    int
	Offset   int
}
