package packstore_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstore/packstore/pkg/packstore"
)

func TestComputeObjectID(t *testing.T) {
	a := packstore.ComputeObjectID([]byte("hello"))
	b := packstore.ComputeObjectID([]byte("hello"))
	c := packstore.ComputeObjectID([]byte("world"))

	assert.Equal(t, a, b, "identical content hashes identically")
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
	assert.True(t, packstore.ObjectID{}.IsZero())
}

func TestObjectIDStringRoundTrip(t *testing.T) {
	id := packstore.ComputeObjectID([]byte("round trip"))

	s := id.String()
	assert.Len(t, s, packstore.ObjectIDSize*2)
	assert.Equal(t, strings.ToLower(s), s)

	parsed, err := packstore.ParseObjectID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseObjectIDErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", strings.Repeat("zz", packstore.ObjectIDSize)},
		{"too short", "abcd"},
		{"too long", strings.Repeat("ab", packstore.ObjectIDSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := packstore.ParseObjectID(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestObjectIDJSON(t *testing.T) {
	id := packstore.ComputeObjectID([]byte("json"))

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var decoded packstore.ObjectID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &decoded))
}

func TestObjectIDBytesIsACopy(t *testing.T) {
	id := packstore.ComputeObjectID([]byte("copy"))
	raw := id.Bytes()
	raw[0] ^= 0xff
	assert.NotEqual(t, raw[0], id.Bytes()[0])
}
