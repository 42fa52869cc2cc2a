package packstore

import (
	"context"
	"sync"
)

// Entry is one (logical name, content identifier) pair in an index map.
type Entry struct {
	Name string   `json:"name"`
	ID   ObjectID `json:"id"`
}

// IndexMap maps logical names to content identifiers. A map may be composed
// of multiple overlaid sources; see DatabaseIndexMap for the aggregating
// implementation.
//
// Search and MergedView return materialized snapshots, not live views:
// callers must not assume later mutations are reflected in a returned slice.
type IndexMap interface {
	// TryGet looks up the identifier for a name. Absence is not an error.
	TryGet(ctx context.Context, name string) (ObjectID, bool, error)

	// Contains reports whether a name is present.
	Contains(ctx context.Context, name string) (bool, error)

	// Search returns a snapshot of the entries matching the predicate.
	Search(ctx context.Context, match func(Entry) bool) ([]Entry, error)

	// MergedView returns a full snapshot of the effective mapping.
	MergedView(ctx context.Context) ([]Entry, error)

	// Set writes one entry. Write semantics are implementation-defined;
	// for DatabaseIndexMap see its documentation.
	Set(ctx context.Context, name string, id ObjectID) error
}

// DatabaseIndexMap aggregates possibly-many sources into one effective
// mapping held in an internal table, and optionally forwards writes to one
// designated writable backing map.
//
// All operations on the internal table share a single critical section per
// instance: merges, unmerges, point reads, and snapshots never observe a
// partially applied batch from another goroutine.
type DatabaseIndexMap struct {
	mu       sync.Mutex
	table    map[string]ObjectID
	writable IndexMap
}

var _ IndexMap = (*DatabaseIndexMap)(nil)

// NewDatabaseIndexMap creates an empty aggregating index map with no
// writable backing configured.
func NewDatabaseIndexMap() *DatabaseIndexMap {
	return &DatabaseIndexMap{
		table: make(map[string]ObjectID),
	}
}

// SetWritableIndex configures the backing map that Set forwards writes to.
// Pass nil to make the aggregator a purely ephemeral overlay.
func (m *DatabaseIndexMap) SetWritableIndex(w IndexMap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writable = w
}

// WritableIndex returns the configured writable backing map, or nil.
func (m *DatabaseIndexMap) WritableIndex() IndexMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writable
}

// Merge overlays the given entries onto the internal table. Each name is
// overwritten unconditionally: the most recently merged value wins, with no
// ordering or version comparison.
func (m *DatabaseIndexMap) Merge(entries ...Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.table[e.Name] = e.ID
	}
}

// MergeFrom overlays another index map's full merged view onto this one.
func (m *DatabaseIndexMap) MergeFrom(ctx context.Context, other IndexMap) error {
	entries, err := other.MergedView(ctx)
	if err != nil {
		return err
	}
	m.Merge(entries...)
	return nil
}

// Unmerge removes each entry's name from the internal table. Removal is
// keyed by name only: the stored identifier is not compared against the one
// supplied, so unmerging a stale (name, id) pair still drops whatever entry
// currently holds that name. This matches the last-writer-wins semantics of
// Merge and is intentional.
func (m *DatabaseIndexMap) Unmerge(entries ...Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		delete(m.table, e.Name)
	}
}

// TryGet looks up a name in the internal table.
func (m *DatabaseIndexMap) TryGet(ctx context.Context, name string) (ObjectID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.table[name]
	return id, ok, nil
}

// Contains reports whether a name is present in the internal table.
func (m *DatabaseIndexMap) Contains(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.table[name]
	return ok, nil
}

// Search returns a snapshot of the internal-table entries matching the
// predicate. Entries are captured by copy; later merges do not affect a
// returned slice.
func (m *DatabaseIndexMap) Search(ctx context.Context, match func(Entry) bool) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for name, id := range m.table {
		e := Entry{Name: name, ID: id}
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// MergedView returns a full snapshot of the internal table.
func (m *DatabaseIndexMap) MergedView(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.table))
	for name, id := range m.table {
		out = append(out, Entry{Name: name, ID: id})
	}
	return out, nil
}

// Set writes one entry. With a writable backing map configured the write is
// applied there first and then to the internal table; a backing failure
// leaves the internal table untouched. Without a backing map only the
// internal table is updated and the aggregator behaves as an ephemeral
// overlay.
func (m *DatabaseIndexMap) Set(ctx context.Context, name string, id ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writable != nil {
		if err := m.writable.Set(ctx, name, id); err != nil {
			return &IndexError{Name: name, Op: "set", Err: err}
		}
	}
	m.table[name] = id
	return nil
}

// Len returns the number of entries in the internal table.
func (m *DatabaseIndexMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}
