package gid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticemodel/lattice/gid"
)

func TestGenerate_Unique(t *testing.T) {
	a := gid.Generate()
	b := gid.Generate()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsEmpty())
}

func TestFromInt(t *testing.T) {
	assert.Equal(t, gid.ID("42"), gid.FromInt(42))
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected gid.ID
	}{
		{"string", "abc", gid.ID("abc")},
		{"float64", float64(7), gid.ID("7")},
		{"int", 9, gid.ID("9")},
		{"int64", int64(11), gid.ID("11")},
		{"ID passthrough", gid.ID("xyz"), gid.ID("xyz")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gid.FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := gid.FromAny(struct{}{})
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	var id gid.ID
	assert.True(t, id.IsEmpty())
	assert.Equal(t, gid.Empty, id)
}
