package memory

import (
	"context"
	"sync"

	"github.com/packstore/packstore/pkg/packstore"
)

// Index implements packstore.IndexMap with an in-memory table. It serves as
// the reference writable backing for a DatabaseIndexMap and as the index of
// choice for tests and ephemeral deployments.
type Index struct {
	mu      sync.RWMutex
	entries map[string]packstore.ObjectID
}

// New creates a new in-memory index.
func New() *Index {
	return &Index{
		entries: make(map[string]packstore.ObjectID),
	}
}

var _ packstore.IndexMap = (*Index)(nil)

func (i *Index) TryGet(ctx context.Context, name string) (packstore.ObjectID, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	id, ok := i.entries[name]
	return id, ok, nil
}

func (i *Index) Contains(ctx context.Context, name string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.entries[name]
	return ok, nil
}

func (i *Index) Search(ctx context.Context, match func(packstore.Entry) bool) ([]packstore.Entry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []packstore.Entry
	for name, id := range i.entries {
		e := packstore.Entry{Name: name, ID: id}
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (i *Index) MergedView(ctx context.Context) ([]packstore.Entry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]packstore.Entry, 0, len(i.entries))
	for name, id := range i.entries {
		out = append(out, packstore.Entry{Name: name, ID: id})
	}
	return out, nil
}

func (i *Index) Set(ctx context.Context, name string, id packstore.ObjectID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[name] = id
	return nil
}

// Delete removes a name. Absence is not an error.
func (i *Index) Delete(ctx context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, name)
	return nil
}
