package packstore

import (
	"context"
	"io"
	"sync"
	"time"
)

// loadCopyStep bounds each read issued while materializing a chunk, so a
// load streams from the transport instead of trusting one unbounded read.
const loadCopyStep = 32 * 1024

// Chunk is a fixed-offset, fixed-size byte range within a storage
// container, individually loadable and unloadable. A chunk holds at most
// one resident buffer at a time; the buffer is exclusively owned by the
// chunk and Unload is its only release path.
//
// Chunks are created by their owning Storage via OpenChunk and hold a
// back-reference to it for I/O routing only; the reference is not an
// ownership edge.
type Chunk struct {
	storage  *Storage
	location int64
	size     int64

	mu         sync.Mutex
	data       []byte
	bytesRead  int64
	lastAccess time.Time
}

func newChunk(storage *Storage, location, size int64) *Chunk {
	return &Chunk{
		storage:  storage,
		location: location,
		size:     size,
	}
}

// GetData returns the chunk's resident buffer, loading it through the
// given provider if necessary. A loaded chunk returns its existing buffer
// without touching the provider. A zero-size chunk never loads and returns
// (nil, nil).
//
// The load opens a stream for the owning storage's URL, seeks to Location,
// and copies up to Size bytes in bounded increments. A source that reports
// end-of-data before Size bytes is not an error at this layer: the call
// succeeds with a partially filled buffer and BytesRead exposes the
// shortfall for a higher layer to check. I/O failures from the stream
// propagate unchanged and leave the chunk unloaded.
func (c *Chunk) GetData(ctx context.Context, provider FileProvider) ([]byte, error) {
	if c.size == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data != nil {
		c.lastAccess = time.Now()
		return c.data, nil
	}

	if provider == nil {
		return nil, &MissingProviderError{Storage: c.storage}
	}

	stream, err := provider.Open(ctx, c.storage.URL())
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if _, err := stream.Seek(c.location, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, c.size)
	var total int64
	for total < c.size {
		step := c.size - total
		if step > loadCopyStep {
			step = loadCopyStep
		}
		n, err := stream.Read(buf[total : total+step])
		total += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// A zero-length read without an error would spin forever.
			break
		}
	}

	c.data = buf
	c.bytesRead = total
	c.lastAccess = time.Now()
	return c.data, nil
}

// RegisterUsage stamps the last-access time to now without forcing a load.
// An external eviction policy uses it to mark hits.
func (c *Chunk) RegisterUsage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccess = time.Now()
}

// Unload releases the resident buffer, if any. It is idempotent and safe
// to call on a chunk that was never loaded. A subsequent GetData performs a
// fresh read.
func (c *Chunk) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.bytesRead = 0
}

// IsLoaded reports whether the chunk currently holds a resident buffer.
func (c *Chunk) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data != nil
}

// IsMissing reports the inverse of IsLoaded.
func (c *Chunk) IsMissing() bool {
	return !c.IsLoaded()
}

// ExistsInFile reports whether the chunk occupies bytes in the container.
// A zero-size chunk does not exist in the file and can never load.
func (c *Chunk) ExistsInFile() bool {
	return c.size > 0
}

// Size returns the chunk's byte size, fixed at construction.
func (c *Chunk) Size() int64 {
	return c.size
}

// Location returns the chunk's byte offset within the storage, fixed at
// construction.
func (c *Chunk) Location() int64 {
	return c.location
}

// LastAccessTime returns the most recent usage stamp. The zero time means
// the chunk has never been loaded or marked.
func (c *Chunk) LastAccessTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccess
}

// BytesRead returns how many bytes the most recent load actually copied.
// A value smaller than Size while loaded means the source stream ended
// early; this layer accepts the short read and leaves integrity checking
// to the caller.
func (c *Chunk) BytesRead() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesRead
}

// Storage returns the owning storage.
func (c *Chunk) Storage() *Storage {
	return c.storage
}
