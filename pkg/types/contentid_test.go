package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeContentID(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{
			name:    "empty content",
			content: []byte(""),
			// Git: echo -n "" | git hash-object --stdin
			expected: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		},
		{
			name:    "hello world",
			content: []byte("hello world"),
			// Git computes: SHA-1("blob 11\0hello world")
			expected: "95d09f2b10159347eece71399a7e2e907ea3df4f",
		},
		{
			name:    "test content",
			content: []byte("test content\n"),
			// Git: echo "test content" | git hash-object --stdin
			expected: "d670460b4b4aece5915caf5c68d12f560a9fe3e4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeContentID(tt.content).String())
		})
	}
}

func TestParseContentID(t *testing.T) {
	id := ComputeContentID([]byte("hello world"))

	parsed, err := ParseContentID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseContentID("abc")
	assert.ErrorContains(t, err, "invalid content ID length")

	_, err = ParseContentID("zz5d09f2b10159347eece71399a7e2e907ea3df4f"[:40])
	assert.Error(t, err)

	assert.True(t, ContentID{}.IsZero())
	assert.False(t, id.IsZero())
}

func TestContentID_JSONAndSQL(t *testing.T) {
	id := ComputeContentID([]byte("hello world"))

	data, err := json.Marshal(map[string]ContentID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"95d09f2b10159347eece71399a7e2e907ea3df4f"}`, string(data))

	var decoded map[string]ContentID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded["id"])

	v, err := id.Value()
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	var scanned ContentID
	require.NoError(t, scanned.Scan([]byte(id.String())))
	assert.Equal(t, id, scanned)
	assert.Error(t, scanned.Scan(nil))
	assert.Error(t, scanned.Scan(42))
}
