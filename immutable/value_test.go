package immutable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_RoundTrip(t *testing.T) {
	v := Wrap(42)
	assert.Equal(t, 42, v.Unwrap())
}

func TestWrap_NilIsNil(t *testing.T) {
	v := Wrap(nil)
	assert.True(t, v.IsNil())
}

func TestIsNil_TypedNilPointer(t *testing.T) {
	var p *int
	v := Wrap(p)
	assert.True(t, v.IsNil())
}

func TestIsNil_NonNilValue(t *testing.T) {
	assert.False(t, Wrap(5).IsNil())
	assert.False(t, Wrap("x").IsNil())
	assert.False(t, Wrap(false).IsNil())
}

func TestIsNil_NilMapAndSlice(t *testing.T) {
	var m map[string]any
	var s []any
	assert.True(t, Wrap(m).IsNil())
	assert.True(t, Wrap(s).IsNil())
}

func TestWrapClone_PrimitivesPassThroughUnchanged(t *testing.T) {
	v := WrapClone("hello")
	assert.Equal(t, "hello", v.Unwrap())
}

func TestWrapClone_ShapePreserved(t *testing.T) {
	original := map[string]any{"a": 1, "b": []any{"x", "y"}}
	v := WrapClone(original)

	cloned, ok := v.Unwrap().(map[string]any)
	require.True(t, ok, "Unwrap should return a map[string]any, not a wrapper type")
	assert.Equal(t, original, cloned)
}

func TestWrapClone_MutatingOriginalDoesNotAffectSnapshot(t *testing.T) {
	original := map[string]any{"name": "A", "tags": []any{"x"}}
	snapshot := WrapClone(original)

	original["name"] = "B"
	original["tags"].([]any)[0] = "mutated"

	cloned := snapshot.Unwrap().(map[string]any)
	assert.Equal(t, "A", cloned["name"])
	assert.Equal(t, "x", cloned["tags"].([]any)[0])
}

func TestWrapClone_NestedMapsAndSlices(t *testing.T) {
	original := map[string]any{
		"child": map[string]any{"gid": "g1"},
		"list":  []any{map[string]any{"gid": "g2"}, "plain"},
	}
	snapshot := WrapClone(original).Unwrap().(map[string]any)

	child := original["child"].(map[string]any)
	child["gid"] = "mutated"
	list := original["list"].([]any)
	list[0].(map[string]any)["gid"] = "mutated"

	snapChild := snapshot["child"].(map[string]any)
	assert.Equal(t, "g1", snapChild["gid"])
	snapListItem := snapshot["list"].([]any)[0].(map[string]any)
	assert.Equal(t, "g2", snapListItem["gid"])
}

func TestWrapClone_NilMapAndSlicePreserveNilness(t *testing.T) {
	var m map[string]any
	var s []any

	clonedMap := WrapClone(m).Unwrap().(map[string]any)
	assert.Nil(t, clonedMap)

	clonedSlice := WrapClone(s).Unwrap().([]any)
	assert.Nil(t, clonedSlice)
}

func TestWrapClone_PointerValuesPassThrough(t *testing.T) {
	type holder struct{ n int }
	h := &holder{n: 1}
	v := WrapClone(h)
	assert.Same(t, h, v.Unwrap())
}
