package packstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// service implements the Service interface
type service struct {
	index           *DatabaseIndexMap
	defaultProvider string

	mu        sync.RWMutex
	storages  map[string]*Storage
	providers map[string]FileProvider
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithIndexMap sets the aggregating index map for the service. Without this
// option the service starts with a fresh empty map.
func WithIndexMap(m *DatabaseIndexMap) Option {
	return func(s *service) {
		s.index = m
	}
}

// WithWritableIndex configures the backing map the service's index forwards
// writes to.
func WithWritableIndex(w IndexMap) Option {
	return func(s *service) {
		if s.index == nil {
			s.index = NewDatabaseIndexMap()
		}
		s.index.SetWritableIndex(w)
	}
}

// WithProvider registers a file provider for a URL scheme (e.g. "file",
// "mem", "s3").
func WithProvider(scheme string, provider FileProvider) Option {
	return func(s *service) {
		if s.providers == nil {
			s.providers = make(map[string]FileProvider)
		}
		s.providers[scheme] = provider
	}
}

// WithDefaultProvider sets the scheme used for URLs that carry no scheme of
// their own.
func WithDefaultProvider(scheme string) Option {
	return func(s *service) {
		s.defaultProvider = scheme
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		storages:  make(map[string]*Storage),
		providers: make(map[string]FileProvider),
	}

	for _, option := range options {
		option(s)
	}

	if s.index == nil {
		s.index = NewDatabaseIndexMap()
	}

	if s.defaultProvider != "" {
		if _, ok := s.providers[s.defaultProvider]; !ok {
			return nil, fmt.Errorf("default provider %q is not registered", s.defaultProvider)
		}
	}

	return s, nil
}

// Index operations

func (s *service) Resolve(ctx context.Context, name string) (ObjectID, bool, error) {
	return s.index.TryGet(ctx, name)
}

func (s *service) SetEntry(ctx context.Context, name string, id ObjectID) error {
	return s.index.Set(ctx, name, id)
}

func (s *service) Merge(entries ...Entry) {
	s.index.Merge(entries...)
}

func (s *service) Unmerge(entries ...Entry) {
	s.index.Unmerge(entries...)
}

func (s *service) Index() *DatabaseIndexMap {
	return s.index
}

// Storage operations

func (s *service) RegisterStorage(ctx context.Context, req RegisterStorageRequest) (*Storage, error) {
	if req.URL == "" {
		return nil, &StorageError{URL: req.URL, Op: "register", Err: fmt.Errorf("url is required")}
	}

	s.mu.Lock()
	storage, ok := s.storages[req.URL]
	if !ok {
		storage = NewStorage(req.URL)
		s.storages[req.URL] = storage
	}
	s.mu.Unlock()

	for _, r := range req.Chunks {
		if _, err := storage.OpenChunk(r.Location, r.Size); err != nil {
			return nil, err
		}
	}
	return storage, nil
}

func (s *service) GetStorage(url string) (*Storage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storage, ok := s.storages[url]
	if !ok {
		return nil, &StorageError{URL: url, Op: "get", Err: ErrStorageNotFound}
	}
	return storage, nil
}

func (s *service) ListStorages() []*Storage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Storage, 0, len(s.storages))
	for _, storage := range s.storages {
		out = append(out, storage)
	}
	return out
}

// Chunk operations

// ReadChunk resolves the provider for the storage URL, opens the chunk
// covering the requested region, and returns its data. Load failures from
// the provider's stream propagate unchanged, as GetData documents.
func (s *service) ReadChunk(ctx context.Context, req ReadChunkRequest) ([]byte, error) {
	storage, err := s.GetStorage(req.URL)
	if err != nil {
		return nil, err
	}

	chunk, err := storage.OpenChunk(req.Location, req.Size)
	if err != nil {
		return nil, err
	}

	provider, err := s.ProviderForURL(req.URL)
	if err != nil {
		return nil, err
	}

	return chunk.GetData(ctx, provider)
}

// File provider operations

func (s *service) RegisterProvider(scheme string, provider FileProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[scheme] = provider
}

func (s *service) GetProvider(scheme string) (FileProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	provider, ok := s.providers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q", ErrProviderNotFound, scheme)
	}
	return provider, nil
}

// ProviderForURL picks the provider registered for the URL's scheme, falling
// back to the configured default scheme for bare paths.
func (s *service) ProviderForURL(url string) (FileProvider, error) {
	scheme := s.defaultProvider
	if head, _, ok := strings.Cut(url, "://"); ok {
		scheme = head
	}
	if scheme == "" {
		return nil, fmt.Errorf("%w: url %q has no scheme and no default provider is set", ErrProviderNotFound, url)
	}
	return s.GetProvider(scheme)
}
