package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayload_Accessors(t *testing.T) {
	p := NewPayload(map[string]any{
		"title":   "  Loops  ",
		"blank":   "   ",
		"count":   float64(3),
		"ratio":   float64(2.5),
		"flag":    true,
		"tags":    []any{"a", 1, " b ", "", nil},
		"items":   []any{map[string]any{"k": "v"}, "skip", map[string]any{"k": "w"}},
		"nested":  map[string]any{"inner": "x"},
		"typed":   []string{"x", " "},
		"numeric": float64(7),
	})

	assert.Equal(t, "Loops", p.String("title", "d"))
	assert.Equal(t, "d", p.String("blank", "d"))
	assert.Equal(t, "d", p.String("count", "d"))
	assert.Equal(t, "7", p.Text("numeric", "d"))
	assert.Equal(t, 3, p.Int("count", 0))
	assert.Equal(t, 9, p.Int("ratio", 9))
	assert.InDelta(t, 2.5, p.Float("ratio", 0), 1e-9)
	assert.True(t, p.Bool("flag", false))
	assert.Equal(t, []string{"a", "b"}, p.Strings("tags"))
	assert.Equal(t, []string{"x"}, p.Strings("typed"))
	assert.Nil(t, p.Strings("missing"))

	objs := p.Objects("items")
	if assert.Len(t, objs, 2) {
		assert.Equal(t, "w", objs[1].String("k", ""))
	}
	assert.Equal(t, "x", p.Object("nested").String("inner", ""))
	assert.Equal(t, 0, p.Object("missing").Len())
	assert.Len(t, p.List("tags"), 5)
	assert.Equal(t, "fallback", p.Any("missing", "fallback"))
	assert.Equal(t, []string{"nope"}, p.Missing("title", "nope"))
}

func TestNewPayload_Nil(t *testing.T) {
	p := NewPayload(nil)
	assert.False(t, p.Has("x"))
	assert.NotNil(t, p.Raw())
}

func TestObjectsOf(t *testing.T) {
	assert.Len(t, ObjectsOf(map[string]any{"a": 1}), 1)
	assert.Len(t, ObjectsOf([]any{map[string]any{}, "x", map[string]any{}}), 2)
	assert.Nil(t, ObjectsOf("scalar"))
}
