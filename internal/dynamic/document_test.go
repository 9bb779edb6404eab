package dynamic_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/prism/internal/dynamic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Mapping(t *testing.T) {
	doc, err := dynamic.Parse(strings.NewReader(`
name: beacon
first-seen: 3
ratio: 0.5
tags: [a, b]
pose: {x: 1, y: 2}
`))
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)

	st := doc.Type.Elem()
	require.Equal(t, reflect.Struct, st.Kind())
	require.Equal(t, 5, st.NumField())

	want := []struct {
		name, port string
		typ        reflect.Type
	}{
		{"Name", "name", reflect.TypeFor[string]()},
		{"FirstSeen", "first-seen", reflect.TypeFor[int64]()},
		{"Ratio", "ratio", reflect.TypeFor[float64]()},
		{"Tags", "tags", reflect.TypeFor[[]string]()},
	}
	for i, w := range want {
		f := st.Field(i)
		assert.Equal(t, w.name, f.Name)
		assert.Equal(t, w.port, f.Tag.Get("prism"))
		assert.Equal(t, w.typ, f.Type)
	}
	assert.Equal(t, reflect.Struct, st.Field(4).Type.Kind())

	vals, err := doc.Values()
	require.NoError(t, err)
	v := reflect.ValueOf(vals[0]).Elem()
	assert.Equal(t, "beacon", v.Field(0).Interface())
	assert.Equal(t, int64(3), v.Field(1).Interface())
	assert.Equal(t, []string{"a", "b"}, v.Field(3).Interface())
	assert.Equal(t, int64(2), v.Field(4).Field(1).Interface())
}

func TestParse_ListMergesKeys(t *testing.T) {
	doc, err := dynamic.Parse(strings.NewReader(`[{"id": 1, "v": 1}, {"id": 2, "v": 2.5, "extra": true}, {"id": "x"}]`))
	require.NoError(t, err)
	require.Len(t, doc.Records, 3)

	st := doc.Type.Elem()
	require.Equal(t, 3, st.NumField())
	assert.Equal(t, reflect.TypeFor[any](), st.Field(0).Type, "mixed kinds widen to any")
	assert.Equal(t, reflect.TypeFor[float64](), st.Field(1).Type, "ints and floats widen to float64")
	assert.Equal(t, reflect.TypeFor[bool](), st.Field(2).Type)

	vals, err := doc.Values()
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, 2.5, reflect.ValueOf(vals[1]).Elem().Field(1).Interface())
	assert.Equal(t, false, reflect.ValueOf(vals[2]).Elem().Field(2).Interface())
}

func TestParse_KeyOrderKept(t *testing.T) {
	recs, err := dynamic.Decode(strings.NewReader("z: 1\na: 2\nm: 3\n"))
	require.NoError(t, err)
	var keys []string
	for p := recs[0].Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestParse_FieldNames(t *testing.T) {
	doc, err := dynamic.Parse(strings.NewReader("1st: a\n_: b\nfoo_bar: c\nFooBar: d\n"))
	require.NoError(t, err)
	st := doc.Type.Elem()
	var names []string
	for i := range st.NumField() {
		names = append(names, st.Field(i).Name)
	}
	assert.Equal(t, []string{"F1st", "F", "FooBar", "FooBar2"}, names)
}

func TestParse_Unsupported(t *testing.T) {
	for name, src := range map[string]string{
		"empty":  "",
		"scalar": "42",
		"items":  "[1, 2]",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := dynamic.Parse(strings.NewReader(src))
			assert.ErrorIs(t, err, dynamic.ErrUnsupportedDocument)
		})
	}
}

func TestPlain(t *testing.T) {
	recs, err := dynamic.Decode(strings.NewReader("a: {b: [1, {c: 2}]}"))
	require.NoError(t, err)
	got := dynamic.Plain(recs[0])
	assert.Equal(t, map[string]any{"a": map[string]any{"b": []any{1, map[string]any{"c": 2}}}}, got)
}
