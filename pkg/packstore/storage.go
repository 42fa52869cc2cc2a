package packstore

import "sync"

type chunkKey struct {
	location int64
	size     int64
}

// Storage describes one packed container identified by a URL and owns the
// chunks materialized from it. Repeated OpenChunk calls for the same
// (location, size) region share a single chunk, so two chunk objects are
// never concurrently responsible for the same region of the same storage.
//
// Storage performs no I/O itself; reads are delegated to chunks, which
// delegate to a FileProvider.
type Storage struct {
	url string

	mu     sync.Mutex
	chunks map[chunkKey]*Chunk
}

// NewStorage creates a storage for the container at the given URL.
func NewStorage(url string) *Storage {
	return &Storage{
		url:    url,
		chunks: make(map[chunkKey]*Chunk),
	}
}

// URL returns the container URL. It is immutable.
func (s *Storage) URL() string {
	return s.url
}

// OpenChunk returns the chunk covering the exact (location, size) region,
// creating it lazily on first request. Callers asking for the same region
// share one resident buffer.
func (s *Storage) OpenChunk(location, size int64) (*Chunk, error) {
	if location < 0 || size < 0 {
		return nil, &StorageError{URL: s.url, Op: "open_chunk", Err: ErrChunkOutOfRange}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := chunkKey{location: location, size: size}
	if c, ok := s.chunks[key]; ok {
		return c, nil
	}
	c := newChunk(s, location, size)
	s.chunks[key] = c
	return c, nil
}

// Chunks returns a snapshot of all chunks materialized so far.
func (s *Storage) Chunks() []*Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	return out
}

// Extent returns the container extent implied by the chunks seen so far:
// the maximum location+size over all of them.
func (s *Storage) Extent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var extent int64
	for key := range s.chunks {
		if end := key.location + key.size; end > extent {
			extent = end
		}
	}
	return extent
}

// ResidentBytes returns the total size of currently loaded chunk buffers.
func (s *Storage) ResidentBytes() int64 {
	var total int64
	for _, c := range s.Chunks() {
		if c.IsLoaded() {
			total += c.Size()
		}
	}
	return total
}

// UnloadAll releases every resident chunk buffer in this storage.
func (s *Storage) UnloadAll() {
	for _, c := range s.Chunks() {
		c.Unload()
	}
}
