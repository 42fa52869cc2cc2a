// Package manifest reads and writes bundle manifests: the file shipped next
// to a packed container that lists its chunk layout and the logical names it
// provides. Mounting a bundle registers the storage and merges its entries
// into a service's index; unmounting removes them again.
//
// The wire format is canonical CBOR inside an LZ4 frame.
package manifest

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/packstore/packstore/pkg/packstore"
)

// FormatVersion is the manifest format this package writes.
const FormatVersion = 1

var (
	// ErrCorrupt indicates a manifest that could not be decoded
	ErrCorrupt = errors.New("corrupt manifest")

	// ErrUnsupportedVersion indicates a manifest written by a newer format
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
)

// Manifest describes one shipped bundle: where its container lives, how it
// is chunked, and which logical names it maps to which content identifiers.
type Manifest struct {
	Version    int
	StorageURL string
	Entries    []packstore.Entry
	Chunks     []packstore.ChunkRange
}

// wireManifest is the serialized form. Object ids travel as raw byte
// strings rather than hex, and map keys sort canonically so identical
// manifests are byte-identical.
type wireManifest struct {
	Version    int         `cbor:"version"`
	StorageURL string      `cbor:"storage_url"`
	Entries    []wireEntry `cbor:"entries"`
	Chunks     []wireChunk `cbor:"chunks"`
}

type wireEntry struct {
	Name string `cbor:"name"`
	ID   []byte `cbor:"id"`
}

type wireChunk struct {
	Location int64 `cbor:"location"`
	Size     int64 `cbor:"size"`
}

var encMode, _ = cbor.EncOptions{
	Sort:        cbor.SortCanonical,
	IndefLength: cbor.IndefLengthForbidden,
}.EncMode()

var decMode, _ = cbor.DecOptions{
	MaxArrayElements: 1 << 20,
	MaxMapPairs:      1 << 20,
	MaxNestedLevels:  16,
	IndefLength:      cbor.IndefLengthForbidden,
	DupMapKey:        cbor.DupMapKeyEnforcedAPF,
}.DecMode()

// Write encodes the manifest and writes it as an LZ4 frame.
func Write(w io.Writer, m *Manifest) error {
	wire := wireManifest{
		Version:    FormatVersion,
		StorageURL: m.StorageURL,
		Entries:    make([]wireEntry, 0, len(m.Entries)),
		Chunks:     make([]wireChunk, 0, len(m.Chunks)),
	}
	for _, e := range m.Entries {
		wire.Entries = append(wire.Entries, wireEntry{Name: e.Name, ID: e.ID.Bytes()})
	}
	for _, c := range m.Chunks {
		wire.Chunks = append(wire.Chunks, wireChunk{Location: c.Location, Size: c.Size})
	}

	data, err := encMode.Marshal(wire)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	zw := lz4.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return zw.Close()
}

// Read decodes a manifest from an LZ4 frame.
func Read(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var wire wireManifest
	if err := decMode.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if wire.Version > FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, wire.Version)
	}

	m := &Manifest{
		Version:    wire.Version,
		StorageURL: wire.StorageURL,
		Entries:    make([]packstore.Entry, 0, len(wire.Entries)),
		Chunks:     make([]packstore.ChunkRange, 0, len(wire.Chunks)),
	}
	for _, e := range wire.Entries {
		if len(e.ID) != packstore.ObjectIDSize {
			return nil, fmt.Errorf("%w: entry %q has %d-byte object id", ErrCorrupt, e.Name, len(e.ID))
		}
		var id packstore.ObjectID
		copy(id[:], e.ID)
		m.Entries = append(m.Entries, packstore.Entry{Name: e.Name, ID: id})
	}
	for _, c := range wire.Chunks {
		m.Chunks = append(m.Chunks, packstore.ChunkRange{Location: c.Location, Size: c.Size})
	}
	return m, nil
}
