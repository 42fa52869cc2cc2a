package packstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstore/packstore/pkg/packstore"
	memoryindex "github.com/packstore/packstore/pkg/packstore/index/memory"
	memoryprovider "github.com/packstore/packstore/pkg/packstore/provider/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []packstore.Option
		expectError bool
	}{
		{
			name:        "no options should succeed with ephemeral defaults",
			options:     []packstore.Option{},
			expectError: false,
		},
		{
			name: "with provider and matching default should succeed",
			options: []packstore.Option{
				packstore.WithProvider("mem", memoryprovider.New()),
				packstore.WithDefaultProvider("mem"),
			},
			expectError: false,
		},
		{
			name: "default provider without registration should fail",
			options: []packstore.Option{
				packstore.WithDefaultProvider("mem"),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := packstore.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) (packstore.Service, *memoryprovider.Provider) {
	t.Helper()

	provider := memoryprovider.New()
	svc, err := packstore.New(
		packstore.WithProvider("mem", provider),
		packstore.WithDefaultProvider("mem"),
		packstore.WithWritableIndex(memoryindex.New()),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc, provider
}

func TestServiceStorageOperations(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	t.Run("RegisterStorage", func(t *testing.T) {
		storage, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{
			URL: "mem://packs/level1",
			Chunks: []packstore.ChunkRange{
				{Location: 0, Size: 100},
				{Location: 100, Size: 50},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "mem://packs/level1", storage.URL())
		assert.Len(t, storage.Chunks(), 2)
		assert.Equal(t, int64(150), storage.Extent())
	})

	t.Run("RegisterStorage is idempotent per URL", func(t *testing.T) {
		a, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{URL: "mem://packs/level1"})
		require.NoError(t, err)
		b, err := svc.GetStorage("mem://packs/level1")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("RegisterStorage requires a URL", func(t *testing.T) {
		_, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{})
		assert.Error(t, err)
	})

	t.Run("GetStorage unknown URL", func(t *testing.T) {
		_, err := svc.GetStorage("mem://packs/unknown")
		require.Error(t, err)
		assert.ErrorIs(t, err, packstore.ErrStorageNotFound)
	})

	t.Run("ListStorages", func(t *testing.T) {
		storages := svc.ListStorages()
		require.Len(t, storages, 1)
		assert.Equal(t, "mem://packs/level1", storages[0].URL())
	})
}

func TestServiceReadChunk(t *testing.T) {
	svc, provider := setupTestService(t)
	ctx := context.Background()

	source := testContainer(200)
	provider.Put("mem://packs/level1", source)

	_, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{URL: "mem://packs/level1"})
	require.NoError(t, err)

	data, err := svc.ReadChunk(ctx, packstore.ReadChunkRequest{
		URL:      "mem://packs/level1",
		Location: 50,
		Size:     100,
	})
	require.NoError(t, err)
	assert.Equal(t, source[50:150], data)

	t.Run("unknown storage", func(t *testing.T) {
		_, err := svc.ReadChunk(ctx, packstore.ReadChunkRequest{URL: "mem://nope", Size: 10})
		assert.ErrorIs(t, err, packstore.ErrStorageNotFound)
	})

	t.Run("unknown provider scheme", func(t *testing.T) {
		_, err := svc.RegisterStorage(ctx, packstore.RegisterStorageRequest{URL: "tape://packs/old"})
		require.NoError(t, err)

		_, err = svc.ReadChunk(ctx, packstore.ReadChunkRequest{URL: "tape://packs/old", Size: 10})
		assert.ErrorIs(t, err, packstore.ErrProviderNotFound)
	})
}

func TestServiceIndexOperations(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	id := packstore.ComputeObjectID([]byte("asset"))

	require.NoError(t, svc.SetEntry(ctx, "models/crate", id))

	got, ok, err := svc.Resolve(ctx, "models/crate")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)

	// SetEntry reached the writable backing configured in setup.
	backing := svc.Index().WritableIndex()
	require.NotNil(t, backing)
	got, ok, err = backing.TryGet(ctx, "models/crate")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)

	svc.Unmerge(packstore.Entry{Name: "models/crate", ID: id})
	_, ok, err = svc.Resolve(ctx, "models/crate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceProviderForURL(t *testing.T) {
	svc, provider := setupTestService(t)

	got, err := svc.ProviderForURL("mem://packs/level1")
	require.NoError(t, err)
	assert.Equal(t, packstore.FileProvider(provider), got)

	// Bare paths fall back to the default scheme.
	got, err = svc.ProviderForURL("packs/level1")
	require.NoError(t, err)
	assert.Equal(t, packstore.FileProvider(provider), got)

	_, err = svc.GetProvider("tape")
	assert.ErrorIs(t, err, packstore.ErrProviderNotFound)
}
