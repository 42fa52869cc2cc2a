package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/packstore/packstore/pkg/packstore"
)

// Provider is an in-memory implementation of the packstore.FileProvider
// interface. Containers are registered with Put and served as seekable
// streams; each Open returns an independent reader over the same bytes.
type Provider struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory file provider.
func New() *Provider {
	return &Provider{
		objects: make(map[string][]byte),
	}
}

var _ packstore.FileProvider = (*Provider)(nil)

// Put registers the container bytes served for a URL, replacing any
// previous content.
func (p *Provider) Put(url string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[url] = bytes.Clone(data)
}

// Delete removes a container.
func (p *Provider) Delete(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, url)
}

// Open returns a read-only seekable stream over the container bytes.
func (p *Provider) Open(ctx context.Context, url string) (io.ReadSeekCloser, error) {
	p.mu.RLock()
	data, ok := p.objects[url]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("memory provider: no container for url %q", url)
	}
	return &byteStream{Reader: bytes.NewReader(data)}, nil
}

// byteStream adapts bytes.Reader to io.ReadSeekCloser.
type byteStream struct {
	*bytes.Reader
}

func (s *byteStream) Close() error { return nil }
