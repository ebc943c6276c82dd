package rebuild

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"gotier/domain/core"
)

// BuildFunc recomputes one entry end to end and returns the inputs the new
// artifacts were derived from. It must be all-or-nothing: on error the
// entry's previous artifacts stay valid and the node stays stale.
type BuildFunc func(ctx context.Context, entryID core.EntryID) (Inputs, error)

// Manager schedules recomputation of stale entries with bounded
// parallelism. Entries are independent; only the graph's staleness marks are
// shared, and the graph guards those itself.
type Manager struct {
	graph   *Graph
	build   BuildFunc
	sem     *semaphore.Weighted
	workers int64
}

// Report summarizes one rebuild pass
type Report struct {
	Rebuilt []core.EntryID
	Failed  map[core.EntryID]error
}

// NewManager creates a manager running at most workers builds concurrently
func NewManager(graph *Graph, build BuildFunc, workers int64) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		graph:   graph,
		build:   build,
		sem:     semaphore.NewWeighted(workers),
		workers: workers,
	}
}

// Rebuild recomputes every stale entry exactly once. Clean entries are never
// touched. The stale set is snapshotted up front, so change events arriving
// during the pass are picked up by the next pass rather than racing this one.
func (m *Manager) Rebuild(ctx context.Context) (*Report, error) {
	stale := m.graph.Stale()
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })

	report := &Report{Failed: make(map[core.EntryID]error)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, entryID := range stale {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return report, fmt.Errorf("rebuild canceled: %w", err)
		}

		wg.Add(1)
		go func(id core.EntryID) {
			defer wg.Done()
			defer m.sem.Release(1)

			inputs, err := m.build(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("rebuild: entry %s failed: %v", id, err)
				report.Failed[id] = err
				return
			}
			m.graph.markClean(id, inputs)
			report.Rebuilt = append(report.Rebuilt, id)
		}(entryID)
	}

	wg.Wait()
	sort.Slice(report.Rebuilt, func(i, j int) bool { return report.Rebuilt[i] < report.Rebuilt[j] })
	return report, nil
}
