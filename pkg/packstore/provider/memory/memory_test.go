package memory_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstore/packstore/pkg/packstore/provider/memory"
)

func TestOpenMissingContainer(t *testing.T) {
	p := memory.New()

	_, err := p.Open(context.Background(), "mem://missing")
	assert.Error(t, err)
}

func TestOpenReadSeek(t *testing.T) {
	p := memory.New()
	p.Put("mem://pack", []byte("0123456789"))

	stream, err := p.Open(context.Background(), "mem://pack")
	require.NoError(t, err)
	defer stream.Close()

	pos, err := stream.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(stream, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))
}

func TestOpenReturnsIndependentReaders(t *testing.T) {
	p := memory.New()
	p.Put("mem://pack", []byte("abcdef"))

	a, err := p.Open(context.Background(), "mem://pack")
	require.NoError(t, err)
	defer a.Close()
	b, err := p.Open(context.Background(), "mem://pack")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Seek(3, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf), "second reader starts at its own offset")
}

func TestPutReplacesAndIsolates(t *testing.T) {
	p := memory.New()

	data := []byte("original")
	p.Put("mem://pack", data)
	data[0] = 'X' // caller mutation must not leak into the provider

	stream, err := p.Open(context.Background(), "mem://pack")
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	p.Put("mem://pack", []byte("replaced"))
	stream2, err := p.Open(context.Background(), "mem://pack")
	require.NoError(t, err)
	defer stream2.Close()

	got, err = io.ReadAll(stream2)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))
}

func TestDelete(t *testing.T) {
	p := memory.New()
	p.Put("mem://pack", []byte("data"))
	p.Delete("mem://pack")

	_, err := p.Open(context.Background(), "mem://pack")
	assert.Error(t, err)
}
