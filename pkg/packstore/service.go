package packstore

import (
	"context"
)

// Service defines the main interface of the packstore library. It ties the
// aggregating index map, registered storages, and file providers together
// behind one entry point.
type Service interface {
	// Index operations
	Resolve(ctx context.Context, name string) (ObjectID, bool, error)
	SetEntry(ctx context.Context, name string, id ObjectID) error
	Merge(entries ...Entry)
	Unmerge(entries ...Entry)
	Index() *DatabaseIndexMap

	// Storage operations
	RegisterStorage(ctx context.Context, req RegisterStorageRequest) (*Storage, error)
	GetStorage(url string) (*Storage, error)
	ListStorages() []*Storage

	// Chunk operations
	ReadChunk(ctx context.Context, req ReadChunkRequest) ([]byte, error)

	// File provider operations
	RegisterProvider(scheme string, provider FileProvider)
	GetProvider(scheme string) (FileProvider, error)
	ProviderForURL(url string) (FileProvider, error)
}

// ChunkRange describes one chunk boundary within a packed container.
type ChunkRange struct {
	Location int64 `json:"location"`
	Size     int64 `json:"size"`
}

// RegisterStorageRequest contains parameters for registering a packed
// container. Chunks is optional; listed ranges are materialized as chunk
// handles immediately, others can still be opened later.
type RegisterStorageRequest struct {
	URL    string       `json:"url"`
	Chunks []ChunkRange `json:"chunks,omitempty"`
}

// ReadChunkRequest contains parameters for reading one chunk of a
// registered storage.
type ReadChunkRequest struct {
	URL      string `json:"url"`
	Location int64  `json:"location"`
	Size     int64  `json:"size"`
}
