package rebuild

import (
	"sync"

	"gotier/domain/core"
)

// Inputs are the three versioned dependencies of one entry's classification.
// When any of them drifts from what the last build recorded, the entry is
// stale and must be recomputed.
type Inputs struct {
	EvidenceHash       core.EvidenceHash
	Category           string
	CategoryPolicyHash core.Hash
	SnapshotVersion    string
	Venues             []core.VenueID
}

// Graph tracks the dependency state of every entry. Staleness marks are
// applied atomically per change event; readers never observe a half-applied
// event.
type Graph struct {
	mu    sync.Mutex
	nodes map[core.EntryID]*node
}

type node struct {
	inputs Inputs
	stale  bool
}

// NewGraph creates an empty dependency graph
func NewGraph() *Graph {
	return &Graph{nodes: make(map[core.EntryID]*node)}
}

// Register records an entry's inputs after a successful build. A registered
// node is clean until a change event touches one of its inputs.
func (g *Graph) Register(entryID core.EntryID, inputs Inputs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[entryID] = &node{inputs: inputs}
}

// Track adds an entry that has never been built; it starts stale.
func (g *Graph) Track(entryID core.EntryID, inputs Inputs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[entryID] = &node{inputs: inputs, stale: true}
}

// EvidenceChanged marks the single owning entry stale when its evidence
// content hash drifts. Sibling entries are untouched.
func (g *Graph) EvidenceChanged(entryID core.EntryID, newHash core.EvidenceHash) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[entryID]
	if !ok {
		return
	}
	if n.inputs.EvidenceHash != newHash {
		n.inputs.EvidenceHash = newHash
		n.stale = true
	}
}

// PolicyChanged marks every entry in the named category whose recorded
// policy hash differs from the new one.
func (g *Graph) PolicyChanged(category string, newHash core.Hash) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		if n.inputs.Category != category {
			continue
		}
		if n.inputs.CategoryPolicyHash != newHash {
			n.inputs.CategoryPolicyHash = newHash
			n.stale = true
		}
	}
}

// SnapshotChanged marks entries whose studies reference an affected venue.
// Entries with no study in an affected venue keep their cached results.
func (g *Graph) SnapshotChanged(newVersion string, affected []core.VenueID) {
	affectedSet := make(map[core.VenueID]bool, len(affected))
	for _, v := range affected {
		affectedSet[v] = true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		if n.inputs.SnapshotVersion == newVersion {
			continue
		}
		for _, v := range n.inputs.Venues {
			if affectedSet[v] {
				n.inputs.SnapshotVersion = newVersion
				n.stale = true
				break
			}
		}
	}
}

// Stale returns the entries currently flagged for rebuild, in no particular
// order.
func (g *Graph) Stale() []core.EntryID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []core.EntryID
	for id, n := range g.nodes {
		if n.stale {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsStale reports one entry's staleness
func (g *Graph) IsStale(entryID core.EntryID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[entryID]
	return ok && n.stale
}

// markClean records a successful rebuild
func (g *Graph) markClean(entryID core.EntryID, inputs Inputs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[entryID] = &node{inputs: inputs}
}
