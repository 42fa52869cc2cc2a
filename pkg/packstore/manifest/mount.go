package manifest

import (
	"context"
	"io"

	"github.com/packstore/packstore/pkg/packstore"
)

// Mount reads a manifest, registers its storage layout with the service,
// and merges its entries into the service's index. The most recently
// mounted bundle wins on name conflicts, mirroring Merge semantics.
func Mount(ctx context.Context, svc packstore.Service, r io.Reader) (*Manifest, error) {
	m, err := Read(r)
	if err != nil {
		return nil, err
	}

	if _, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{
		URL:    m.StorageURL,
		Chunks: m.Chunks,
	}); err != nil {
		return nil, err
	}

	svc.Merge(m.Entries...)
	return m, nil
}

// Unmount removes the bundle's entries from the service's index. Removal is
// name-keyed: entries re-merged from another bundle since this one was
// mounted are dropped too. The storage registration and any resident chunk
// buffers are left alone; reclaiming them is the cache manager's job.
func Unmount(svc packstore.Service, m *Manifest) {
	svc.Unmerge(m.Entries...)
}
