package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packstore/packstore/pkg/packstore"
	pgindex "github.com/packstore/packstore/pkg/packstore/index/postgres"
	redisindex "github.com/packstore/packstore/pkg/packstore/index/redis"
	fsprovider "github.com/packstore/packstore/pkg/packstore/provider/fs"
	memoryprovider "github.com/packstore/packstore/pkg/packstore/provider/memory"
	s3provider "github.com/packstore/packstore/pkg/packstore/provider/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		Environment:     "development",
		IndexBackend:    "memory",
		DefaultProvider: "mem",
		Providers: []FileProviderConfig{
			{
				Scheme: "mem",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
	}
}

// ServerConfig represents server configuration for the packstore service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Writable index configuration. "memory" keeps the aggregator as an
	// ephemeral overlay with no backing map.
	IndexBackend string // "memory", "postgres", "redis"
	DatabaseURL  string
	RedisURL     string
	RedisKey     string

	// File provider configuration
	DefaultProvider string
	Providers       []FileProviderConfig
}

// FileProviderConfig represents configuration for one file provider
type FileProviderConfig struct {
	Scheme string // URL scheme the provider serves ("mem", "file", "s3")
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.IndexBackend {
	case "memory", "postgres", "redis":
	default:
		return errors.New("index_backend must be 'memory', 'postgres' or 'redis'")
	}

	if c.IndexBackend == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}
	if c.IndexBackend == "redis" && c.RedisURL == "" {
		return errors.New("redis_url is required when using redis")
	}

	found := false
	for _, p := range c.Providers {
		if p.Scheme == c.DefaultProvider {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default provider scheme '%s' not found in configured providers", c.DefaultProvider)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (packstore.Service, error) {
	var options []packstore.Option

	writable, err := c.buildWritableIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to build writable index: %w", err)
	}
	index := packstore.NewDatabaseIndexMap()
	if writable != nil {
		index.SetWritableIndex(writable)
		// Start the overlay from whatever the backing map already holds.
		if err := index.MergeFrom(context.Background(), writable); err != nil {
			return nil, fmt.Errorf("failed to load writable index: %w", err)
		}
	}
	options = append(options, packstore.WithIndexMap(index))

	for _, providerConfig := range c.Providers {
		provider, err := c.buildFileProvider(providerConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build file provider %s: %w", providerConfig.Scheme, err)
		}
		options = append(options, packstore.WithProvider(providerConfig.Scheme, provider))
	}

	options = append(options, packstore.WithDefaultProvider(c.DefaultProvider))

	return packstore.New(options...)
}

// buildWritableIndex creates the backing IndexMap, or nil for a purely
// in-memory overlay.
func (c *ServerConfig) buildWritableIndex() (packstore.IndexMap, error) {
	switch c.IndexBackend {
	case "memory":
		return nil, nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return pgindex.NewWithPool(pool), nil
	case "redis":
		return redisindex.New(redisindex.Config{
			RedisURL: c.RedisURL,
			Key:      c.RedisKey,
		})
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", c.IndexBackend)
	}
}

// buildFileProvider creates a FileProvider based on the provider configuration
func (c *ServerConfig) buildFileProvider(config FileProviderConfig) (packstore.FileProvider, error) {
	switch config.Type {
	case "memory":
		return memoryprovider.New(), nil

	case "fs":
		fsConfig := fsprovider.Config{
			BaseDir: getString(config.Config, "base_dir", "./data/packs"),
		}
		return fsprovider.New(fsConfig)

	case "s3":
		s3Config := s3provider.Config{
			Region:          getString(config.Config, "region", "us-east-1"),
			Bucket:          getString(config.Config, "bucket", ""),
			AccessKeyID:     getString(config.Config, "access_key_id", ""),
			SecretAccessKey: getString(config.Config, "secret_access_key", ""),
			Endpoint:        getString(config.Config, "endpoint", ""),
			UsePathStyle:    getBool(config.Config, "use_path_style", false),
		}
		return s3provider.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported file provider type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return defaultValue
}
