package packstore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrStorageNotFound indicates a storage was not registered under the
	// requested URL
	ErrStorageNotFound = errors.New("storage not found")

	// ErrProviderNotFound indicates no file provider is registered for a
	// URL scheme
	ErrProviderNotFound = errors.New("file provider not found")

	// ErrEntryNotFound indicates a logical name is absent from an index map
	ErrEntryNotFound = errors.New("index entry not found")

	// ErrChunkOutOfRange indicates a chunk request with a negative location
	// or size
	ErrChunkOutOfRange = errors.New("chunk location and size must be non-negative")
)

// MissingProviderError reports a chunk load attempted without a file
// provider. It carries the owning storage for diagnostics and is always
// fatal to that call; the library never retries it.
type MissingProviderError struct {
	Storage *Storage
}

func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("no file provider available to load chunk data for storage %q", e.Storage.URL())
}

// StorageError represents an error related to storage registration or
// chunk operations
type StorageError struct {
	URL string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for %q: %v", e.Op, e.URL, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IndexError represents an error related to index map operations against a
// writable backing store
type IndexError struct {
	Name string
	Op   string
	Err  error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index operation %s failed for name %q: %v", e.Op, e.Name, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
