package packstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstore/packstore/pkg/packstore"
)

func TestStorageOpenChunkSharesRegion(t *testing.T) {
	storage := packstore.NewStorage("mem://pack")

	a, err := storage.OpenChunk(0, 100)
	require.NoError(t, err)
	b, err := storage.OpenChunk(0, 100)
	require.NoError(t, err)
	assert.Same(t, a, b, "same region must share one chunk")

	c, err := storage.OpenChunk(0, 50)
	require.NoError(t, err)
	assert.NotSame(t, a, c, "different size is a different region")

	d, err := storage.OpenChunk(100, 100)
	require.NoError(t, err)
	assert.NotSame(t, a, d, "different location is a different region")

	assert.Len(t, storage.Chunks(), 3)
}

func TestStorageOpenChunkRejectsNegativeRanges(t *testing.T) {
	storage := packstore.NewStorage("mem://pack")

	tests := []struct {
		name     string
		location int64
		size     int64
	}{
		{"negative location", -1, 10},
		{"negative size", 0, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.OpenChunk(tt.location, tt.size)
			require.Error(t, err)
			assert.ErrorIs(t, err, packstore.ErrChunkOutOfRange)

			var storageErr *packstore.StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, "mem://pack", storageErr.URL)
			assert.Equal(t, "open_chunk", storageErr.Op)
		})
	}
}

func TestStorageExtent(t *testing.T) {
	storage := packstore.NewStorage("mem://pack")
	assert.Equal(t, int64(0), storage.Extent())

	_, err := storage.OpenChunk(0, 100)
	require.NoError(t, err)
	_, err = storage.OpenChunk(500, 250)
	require.NoError(t, err)
	_, err = storage.OpenChunk(200, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(750), storage.Extent())
}

func TestStorageResidentBytesAndUnloadAll(t *testing.T) {
	source := testContainer(512)
	provider := &trackingProvider{data: source}
	storage := packstore.NewStorage("mem://pack")
	ctx := context.Background()

	first, err := storage.OpenChunk(0, 128)
	require.NoError(t, err)
	second, err := storage.OpenChunk(128, 64)
	require.NoError(t, err)
	_, err = storage.OpenChunk(192, 64) // never loaded
	require.NoError(t, err)

	_, err = first.GetData(ctx, provider)
	require.NoError(t, err)
	_, err = second.GetData(ctx, provider)
	require.NoError(t, err)

	assert.Equal(t, int64(192), storage.ResidentBytes())

	storage.UnloadAll()
	assert.Equal(t, int64(0), storage.ResidentBytes())
	assert.False(t, first.IsLoaded())
	assert.False(t, second.IsLoaded())
}
