package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/packstore/packstore/pkg/packstore"
)

// Config options for the Redis index
type Config struct {
	RedisURL string // Standard connection string: redis://<user>:<password>@<host>:<port>/<db>
	Key      string // Hash key holding the index (default: "packstore:index")
}

// Index implements packstore.IndexMap on a single Redis hash: field = name,
// value = hex object id. Useful as a shared writable backing when several
// processes overlay the same index.
type Index struct {
	client *redis.Client
	key    string
}

// New creates a new Redis index, failing fast if the server is unreachable.
func New(cfg Config) (*Index, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, cfg.Key), nil
}

// NewWithClient creates a Redis index over an existing client.
func NewWithClient(client *redis.Client, key string) *Index {
	if key == "" {
		key = "packstore:index"
	}
	return &Index{client: client, key: key}
}

var _ packstore.IndexMap = (*Index)(nil)

func (i *Index) TryGet(ctx context.Context, name string) (packstore.ObjectID, bool, error) {
	val, err := i.client.HGet(ctx, i.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return packstore.ObjectID{}, false, nil
	}
	if err != nil {
		return packstore.ObjectID{}, false, fmt.Errorf("failed to get index entry: %w", err)
	}

	id, err := packstore.ParseObjectID(val)
	if err != nil {
		return packstore.ObjectID{}, false, fmt.Errorf("corrupt object id for name %q: %w", name, err)
	}
	return id, true, nil
}

func (i *Index) Contains(ctx context.Context, name string) (bool, error) {
	ok, err := i.client.HExists(ctx, i.key, name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check index entry: %w", err)
	}
	return ok, nil
}

func (i *Index) Search(ctx context.Context, match func(packstore.Entry) bool) ([]packstore.Entry, error) {
	entries, err := i.MergedView(ctx)
	if err != nil {
		return nil, err
	}

	var out []packstore.Entry
	for _, e := range entries {
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (i *Index) MergedView(ctx context.Context) ([]packstore.Entry, error) {
	fields, err := i.client.HGetAll(ctx, i.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}

	out := make([]packstore.Entry, 0, len(fields))
	for name, val := range fields {
		id, err := packstore.ParseObjectID(val)
		if err != nil {
			return nil, fmt.Errorf("corrupt object id for name %q: %w", name, err)
		}
		out = append(out, packstore.Entry{Name: name, ID: id})
	}
	return out, nil
}

func (i *Index) Set(ctx context.Context, name string, id packstore.ObjectID) error {
	if err := i.client.HSet(ctx, i.key, name, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to set index entry: %w", err)
	}
	return nil
}

// Delete removes a name. Absence is not an error.
func (i *Index) Delete(ctx context.Context, name string) error {
	if err := i.client.HDel(ctx, i.key, name).Err(); err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}
	return nil
}
