// Package cache implements a caller-side eviction manager over the usage
// data the core exposes (per-chunk last-access times and sizes). The core
// itself never evicts; this package is one policy built on its data.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/packstore/packstore/pkg/packstore"
)

// Manager tracks storages and reclaims resident chunk memory, either by
// idle age or down to a byte budget.
type Manager struct {
	mu       sync.Mutex
	storages map[*packstore.Storage]struct{}
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		storages: make(map[*packstore.Storage]struct{}),
	}
}

// Track adds storages to the managed set. Tracking a storage that is
// already tracked is a no-op.
func (m *Manager) Track(storages ...*packstore.Storage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range storages {
		m.storages[s] = struct{}{}
	}
}

func (m *Manager) tracked() []*packstore.Storage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*packstore.Storage, 0, len(m.storages))
	for s := range m.storages {
		out = append(out, s)
	}
	return out
}

// ResidentBytes returns the total loaded buffer size across all tracked
// storages.
func (m *Manager) ResidentBytes() int64 {
	var total int64
	for _, s := range m.tracked() {
		total += s.ResidentBytes()
	}
	return total
}

// SweepIdle unloads every chunk that has been idle longer than maxIdle,
// sweeping storages concurrently. It returns the number of chunks unloaded.
func (m *Manager) SweepIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)

	var unloaded int64
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, s := range m.tracked() {
		s := s
		g.Go(func() error {
			var n int64
			for _, c := range s.Chunks() {
				if c.IsLoaded() && c.LastAccessTime().Before(cutoff) {
					c.Unload()
					n++
				}
			}
			mu.Lock()
			unloaded += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(unloaded), err
	}
	return int(unloaded), nil
}

// EvictToBudget unloads least-recently-used chunks until the resident total
// is at or below the byte budget. It returns the number of bytes freed.
//
// The access-time ranking is a snapshot: a chunk touched between snapshot
// and unload may be evicted despite the fresh hit. Callers wanting stricter
// behavior should serialize eviction with their access path.
func (m *Manager) EvictToBudget(budget int64) int64 {
	type candidate struct {
		chunk *packstore.Chunk
		stamp time.Time
	}

	var resident int64
	var candidates []candidate
	for _, s := range m.tracked() {
		for _, c := range s.Chunks() {
			if c.IsLoaded() {
				resident += c.Size()
				candidates = append(candidates, candidate{chunk: c, stamp: c.LastAccessTime()})
			}
		}
	}

	if resident <= budget {
		return 0
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].stamp.Before(candidates[b].stamp)
	})

	var freed int64
	for _, cand := range candidates {
		if resident <= budget {
			break
		}
		cand.chunk.Unload()
		resident -= cand.chunk.Size()
		freed += cand.chunk.Size()
	}
	return freed
}
