package ports

import (
	"context"

	"gotier/domain/core"
)

// GraphNode tracks the inputs a classification was built from. When any
// recorded hash drifts from the current value the node is stale and the
// entry must be rebuilt.
type GraphNode struct {
	EntryID            core.EntryID
	EvidenceHash       core.EvidenceHash
	CategoryPolicyHash core.Hash
	SnapshotVersion    string
	Stale              bool
	BuiltAt            core.Timestamp
}

// GraphRepository persists dependency-graph node state between builds
type GraphRepository interface {
	// SaveNode upserts a node after a successful build
	SaveNode(ctx context.Context, node *GraphNode) error

	// GetNode retrieves a node by entry ID
	GetNode(ctx context.Context, entryID core.EntryID) (*GraphNode, error)

	// ListNodes returns all tracked nodes
	ListNodes(ctx context.Context) ([]*GraphNode, error)

	// MarkStale flags the given entries for rebuild
	MarkStale(ctx context.Context, entryIDs []core.EntryID) error

	// ListStale returns entries currently flagged for rebuild
	ListStale(ctx context.Context) ([]core.EntryID, error)
}
