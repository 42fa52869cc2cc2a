package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstore/packstore/pkg/packstore"
	"github.com/packstore/packstore/pkg/packstore/index/memory"
)

func TestSetAndTryGet(t *testing.T) {
	idx := memory.New()
	ctx := context.Background()

	id := packstore.ComputeObjectID([]byte("content"))
	require.NoError(t, idx.Set(ctx, "a", id))

	got, ok, err := idx.TryGet(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = idx.TryGet(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	idx := memory.New()
	ctx := context.Background()

	first := packstore.ComputeObjectID([]byte("v1"))
	second := packstore.ComputeObjectID([]byte("v2"))

	require.NoError(t, idx.Set(ctx, "a", first))
	require.NoError(t, idx.Set(ctx, "a", second))

	got, ok, err := idx.TryGet(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestContainsAndDelete(t *testing.T) {
	idx := memory.New()
	ctx := context.Background()

	require.NoError(t, idx.Set(ctx, "a", packstore.ComputeObjectID([]byte("a"))))

	ok, err := idx.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, idx.Delete(ctx, "a"))
	ok, err = idx.Contains(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent name is not an error.
	require.NoError(t, idx.Delete(ctx, "a"))
}

func TestSearchAndMergedView(t *testing.T) {
	idx := memory.New()
	ctx := context.Background()

	require.NoError(t, idx.Set(ctx, "textures/wall", packstore.ComputeObjectID([]byte("wall"))))
	require.NoError(t, idx.Set(ctx, "textures/floor", packstore.ComputeObjectID([]byte("floor"))))
	require.NoError(t, idx.Set(ctx, "audio/theme", packstore.ComputeObjectID([]byte("theme"))))

	view, err := idx.MergedView(ctx)
	require.NoError(t, err)
	assert.Len(t, view, 3)

	matches, err := idx.Search(ctx, func(e packstore.Entry) bool {
		return strings.HasPrefix(e.Name, "textures/")
	})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
