package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/packstore/packstore/pkg/packstore"
)

// Provider is a filesystem implementation of the packstore.FileProvider
// interface. Storage URLs map to paths under a base directory; the scheme
// prefix (e.g. "file://") is stripped before joining.
type Provider struct {
	baseDir string
}

// Config options for the filesystem provider
type Config struct {
	BaseDir string // Base directory containing the packed containers
}

// New creates a new filesystem file provider.
func New(config Config) (*Provider, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Provider{baseDir: config.BaseDir}, nil
}

var _ packstore.FileProvider = (*Provider)(nil)

// Open opens the container file for reading. The returned *os.File supports
// absolute seeking natively.
func (p *Provider) Open(ctx context.Context, url string) (io.ReadSeekCloser, error) {
	rel := url
	if _, tail, ok := strings.Cut(url, "://"); ok {
		rel = tail
	}

	path := filepath.Join(p.baseDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(p.baseDir)) {
		return nil, fmt.Errorf("fs provider: url %q escapes base directory", url)
	}

	return os.Open(path)
}

// Path returns the filesystem path a URL maps to. Useful for tests and
// tooling that stage container files.
func (p *Provider) Path(url string) string {
	rel := url
	if _, tail, ok := strings.Cut(url, "://"); ok {
		rel = tail
	}
	return filepath.Join(p.baseDir, filepath.FromSlash(rel))
}
