package typeinfo_test

import (
	"iter"
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type numbers struct{ vals []int }

func (n numbers) All() iter.Seq[int] { return slices.Values(n.vals) }

type scores struct{ m map[string]int }

func (s scores) All() iter.Seq2[string, int] { return maps.All(s.m) }

type oddAll struct{}

func (oddAll) All() func(int) {
	return func(int) {}
}

type badPairs struct{}

func (badPairs) Oldest() *struct{ K string } { return nil }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		kind     domain.Kind
		key      reflect.Type
		elem     reflect.Type
		degraded bool
	}{
		{name: "int", typ: reflect.TypeFor[int](), kind: domain.KindScalar},
		{name: "string is never enumerable", typ: reflect.TypeFor[string](), kind: domain.KindScalar},
		{name: "byte slice is a blob", typ: reflect.TypeFor[[]byte](), kind: domain.KindScalar},
		{name: "struct", typ: reflect.TypeFor[domain.Vector3D](), kind: domain.KindScalar},
		{name: "slice", typ: reflect.TypeFor[[]string](), kind: domain.KindEnumerable, elem: reflect.TypeFor[string]()},
		{name: "array", typ: reflect.TypeFor[[3]float64](), kind: domain.KindEnumerable, elem: reflect.TypeFor[float64]()},
		{
			name: "map", typ: reflect.TypeFor[map[string]float64](), kind: domain.KindDictionary,
			key: reflect.TypeFor[string](), elem: reflect.TypeFor[float64](),
		},
		{
			name: "ordered pairs", typ: reflect.TypeFor[*orderedmap.OrderedMap[string, int]](), kind: domain.KindDictionary,
			key: reflect.TypeFor[string](), elem: reflect.TypeFor[int](),
		},
		{name: "iter.Seq method", typ: reflect.TypeFor[numbers](), kind: domain.KindEnumerable, elem: reflect.TypeFor[int]()},
		{
			name: "iter.Seq2 method", typ: reflect.TypeFor[scores](), kind: domain.KindDictionary,
			key: reflect.TypeFor[string](), elem: reflect.TypeFor[int](),
		},
		{name: "unusable All degrades", typ: reflect.TypeFor[oddAll](), kind: domain.KindScalar, degraded: true},
		{name: "unusable Oldest degrades", typ: reflect.TypeFor[badPairs](), kind: domain.KindScalar, degraded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := typeinfo.Classify(tt.typ)
			assert.Equal(t, tt.kind, shape.Kind)
			assert.Equal(t, tt.key, shape.Key)
			assert.Equal(t, tt.elem, shape.Elem)
			assert.Equal(t, tt.degraded, shape.Degraded)
		})
	}
}

func TestShape_EntriesKeepSourceOrder(t *testing.T) {
	om := orderedmap.New[string, int]()
	om.Set("b", 2)
	om.Set("a", 1)
	om.Set("c", 3)

	shape := typeinfo.Classify(reflect.TypeOf(om))
	keys, vals := shape.Entries(reflect.ValueOf(om))

	assert.Equal(t, []any{"b", "a", "c"}, interfaces(keys))
	assert.Equal(t, []any{2, 1, 3}, interfaces(vals))
}

func TestShape_EntriesOfBuiltinMapAreSorted(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1}

	shape := typeinfo.Classify(reflect.TypeOf(m))
	keys, vals := shape.Entries(reflect.ValueOf(m))

	assert.Equal(t, []any{"a", "b"}, interfaces(keys))
	assert.Equal(t, []any{1, 2}, interfaces(vals))
}

func TestShape_ElementsFromSeq(t *testing.T) {
	n := numbers{vals: []int{4, 5, 6}}

	shape := typeinfo.Classify(reflect.TypeOf(n))
	require.Equal(t, domain.KindEnumerable, shape.Kind)
	assert.Equal(t, []any{4, 5, 6}, interfaces(shape.Elements(reflect.ValueOf(n))))
}

func TestShape_NilCollectionsAreEmpty(t *testing.T) {
	var s []int
	var m map[string]int
	var om *orderedmap.OrderedMap[string, int]

	assert.Empty(t, typeinfo.Classify(reflect.TypeOf(s)).Elements(reflect.ValueOf(s)))

	keys, vals := typeinfo.Classify(reflect.TypeOf(m)).Entries(reflect.ValueOf(m))
	assert.Empty(t, keys)
	assert.Empty(t, vals)

	keys, vals = typeinfo.Classify(reflect.TypeOf(om)).Entries(reflect.ValueOf(om))
	assert.Empty(t, keys)
	assert.Empty(t, vals)
}

func TestIsPointerShaped(t *testing.T) {
	assert.True(t, typeinfo.IsPointerShaped(reflect.TypeFor[uintptr]()))
	assert.False(t, typeinfo.IsPointerShaped(reflect.TypeFor[*int]()))
	assert.False(t, typeinfo.IsPointerShaped(nil))
}

func interfaces(vs []reflect.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Interface()
	}
	return out
}
