package packstore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// ObjectIDSize is the width of a content identifier in bytes.
const ObjectIDSize = 32

// ObjectID is an opaque fixed-size content hash. It is the canonical name
// for a piece of content, independent of any logical name mapped to it.
// Equality is byte-exact; the zero value means "no identifier".
type ObjectID [ObjectIDSize]byte

// ComputeObjectID hashes raw content bytes into its identifier.
func ComputeObjectID(data []byte) ObjectID {
	return ObjectID(blake3.Sum256(data))
}

// ParseObjectID parses the hex text form produced by String.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	if len(raw) != ObjectIDSize {
		return id, fmt.Errorf("invalid object id %q: got %d bytes, want %d", s, len(raw), ObjectIDSize)
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the lowercase hex form of the identifier.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identifier is the zero value.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// Bytes returns a copy of the raw identifier bytes.
func (id ObjectID) Bytes() []byte {
	out := make([]byte, ObjectIDSize)
	copy(out, id[:])
	return out
}

// MarshalJSON encodes the identifier as a hex string.
func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the identifier from a hex string.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseObjectID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
