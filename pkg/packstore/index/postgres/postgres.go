package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packstore/packstore/pkg/packstore"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Index implements packstore.IndexMap using PostgreSQL. It is the durable
// writable backing for a DatabaseIndexMap: entries written through the
// aggregator survive process restarts.
//
// Expected schema:
//
//	CREATE TABLE index_entries (
//	    id         UUID PRIMARY KEY,
//	    name       TEXT UNIQUE NOT NULL,
//	    object_id  BYTEA NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Index struct {
	db DBTX
}

// New creates a new PostgreSQL index.
func New(db DBTX) *Index {
	return &Index{db: db}
}

// NewWithPool creates a new PostgreSQL index with a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Index {
	return &Index{db: pool}
}

var _ packstore.IndexMap = (*Index)(nil)

func (i *Index) TryGet(ctx context.Context, name string) (packstore.ObjectID, bool, error) {
	var raw []byte
	err := i.db.QueryRow(ctx,
		`SELECT object_id FROM index_entries WHERE name = $1`, name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return packstore.ObjectID{}, false, nil
	}
	if err != nil {
		return packstore.ObjectID{}, false, fmt.Errorf("failed to get index entry: %w", err)
	}

	id, err := objectIDFromRaw(name, raw)
	if err != nil {
		return packstore.ObjectID{}, false, err
	}
	return id, true, nil
}

func (i *Index) Contains(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := i.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM index_entries WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check index entry: %w", err)
	}
	return exists, nil
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
	rows, err := i.db.Query(ctx,
		`SELECT name, object_id FROM index_entries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}
	defer rows.Close()

	var out []packstore.Entry
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		id, err := objectIDFromRaw(name, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, packstore.Entry{Name: name, ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index entries: %w", err)
	}
	return out, nil
}

func (i *Index) Set(ctx context.Context, name string, id packstore.ObjectID) error {
	_, err := i.db.Exec(ctx,
		`INSERT INTO index_entries (id, name, object_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (name)
		 DO UPDATE SET object_id = EXCLUDED.object_id, updated_at = now()`,
		uuid.New(), name, id.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index entry: %w", err)
	}
	return nil
}

// Delete removes a name. Absence is not an error.
func (i *Index) Delete(ctx context.Context, name string) error {
	_, err := i.db.Exec(ctx, `DELETE FROM index_entries WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}
	return nil
}

func objectIDFromRaw(name string, raw []byte) (packstore.ObjectID, error) {
	if len(raw) != packstore.ObjectIDSize {
		return packstore.ObjectID{}, fmt.Errorf("corrupt object id for name %q: got %d bytes, want %d",
			name, len(raw), packstore.ObjectIDSize)
	}
	var id packstore.ObjectID
	copy(id[:], raw)
	return id, nil
}
