package packstore

import (
	"context"
	"io"
)

// FileProvider turns a storage's URL into a readable, seekable byte stream.
// It is supplied by the caller and not owned by this library; chunks open a
// fresh stream per load attempt and guarantee it is closed on every exit
// path, success or failure.
//
// The returned stream must support absolute seeking and sequential reads of
// known length. Timeout and retry policy belong to the provider, not to the
// chunk layer.
type FileProvider interface {
	// Open returns a read-only stream for the given storage URL.
	Open(ctx context.Context, url string) (io.ReadSeekCloser, error)
}
