package typeinfo_test

import (
	"reflect"
	"testing"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Base struct {
	Depth int
}

type hidden struct {
	Leak string
}

type Sample struct {
	Base
	hidden
	Name   string `prism:"Label"`
	Count  int
	Tags   []string
	Scores map[string]float64
	Flat   []int  `prism:",noflatten"`
	Skip   string `prism:"-"`
	Raw    uintptr
	Pos    domain.Vector3D
	secret string
}

type Gauge struct {
	level float64
}

func (g *Gauge) Level() float64      { return g.level }
func (g *Gauge) SetLevel(v float64)  { g.level = v }
func (g *Gauge) Peak() float64       { return g.level * 2 }
func (g *Gauge) Scale(f float64) int { return int(g.level * f) }

func memberNames(ms []*typeinfo.Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func find(t *testing.T, ms []*typeinfo.Member, name string) *typeinfo.Member {
	t.Helper()
	for _, m := range ms {
		if m.Name == name {
			return m
		}
	}
	require.Failf(t, "member not found", "%s", name)
	return nil
}

func TestMembers_Fields(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[*Sample](), typeinfo.Options{})

	assert.Equal(t,
		[]string{"Depth", "Name", "Count", "Tags", "Scores", "Flat", "Skip", "Raw", "Pos"},
		memberNames(ms),
		"promoted exported fields are visible; unexported fields and fields of unexported embeds are not",
	)

	assert.Equal(t, "Label", find(t, ms, "Name").PortName)
	assert.True(t, find(t, ms, "Skip").Ignored)
	assert.True(t, find(t, ms, "Raw").PointerShaped())

	flat := find(t, ms, "Flat")
	assert.True(t, flat.NoFlatten)
	assert.Equal(t, domain.KindScalar, flat.Shape.Kind)

	assert.Equal(t, domain.KindEnumerable, find(t, ms, "Tags").Shape.Kind)
	assert.Equal(t, domain.KindDictionary, find(t, ms, "Scores").Shape.Kind)
}

func TestMembers_Memoised(t *testing.T) {
	a := typeinfo.Members(reflect.TypeFor[Sample](), typeinfo.Options{})
	b := typeinfo.Members(reflect.TypeFor[Sample](), typeinfo.Options{})
	require.NotEmpty(t, a)
	assert.Same(t, a[0], b[0])
}

func TestMembers_NoFlattenOption(t *testing.T) {
	opts := typeinfo.Options{NoFlatten: []reflect.Type{reflect.TypeFor[[]string]()}}
	ms := typeinfo.Members(reflect.TypeFor[Sample](), opts)

	assert.Equal(t, domain.KindScalar, find(t, ms, "Tags").Shape.Kind)
	assert.Equal(t, domain.KindDictionary, find(t, ms, "Scores").Shape.Kind)
}

func TestMember_GetAndSet(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[*Sample](), typeinfo.Options{})
	s := &Sample{Name: "dial", Base: Base{Depth: 3}}
	obj := reflect.ValueOf(s)

	v, ok := find(t, ms, "Name").Get(obj)
	require.True(t, ok)
	assert.Equal(t, "dial", v.Interface())
	assert.True(t, find(t, ms, "Name").IsField())

	v, ok = find(t, ms, "Depth").Get(obj)
	require.True(t, ok)
	assert.Equal(t, 3, v.Interface())

	require.NoError(t, find(t, ms, "Count").Set(obj, reflect.ValueOf(int32(9))))
	assert.Equal(t, 9, s.Count, "numeric values are converted to the member type")

	err := find(t, ms, "Name").Set(obj, reflect.ValueOf(42))
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)

	require.NoError(t, find(t, ms, "Name").Set(obj, reflect.Value{}))
	assert.Empty(t, s.Name)
}

type Outer struct {
	*Base
	Title string
}

func TestMember_NilEmbeddedPointer(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[*Outer](), typeinfo.Options{})
	depth := find(t, ms, "Depth")

	o := &Outer{}
	_, ok := depth.Get(reflect.ValueOf(o))
	assert.False(t, ok, "reading through a nil embedded pointer yields no value")

	require.NoError(t, depth.Set(reflect.ValueOf(o), reflect.ValueOf(5)))
	require.NotNil(t, o.Base)
	assert.Equal(t, 5, o.Depth)
}

func TestMembers_Methods(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[*Gauge](), typeinfo.Options{Methods: true})
	assert.Equal(t, []string{"Level", "Peak"}, memberNames(ms), "methods with parameters are not members")

	level := find(t, ms, "Level")
	peak := find(t, ms, "Peak")
	assert.True(t, level.CanWrite())
	assert.False(t, peak.CanWrite())
	assert.False(t, level.IsField())

	g := &Gauge{}
	require.NoError(t, level.Set(reflect.ValueOf(g), reflect.ValueOf(2.5)))
	v, ok := peak.Get(reflect.ValueOf(g))
	require.True(t, ok)
	assert.Equal(t, 5.0, v.Interface())

	assert.ErrorIs(t, peak.Set(reflect.ValueOf(g), reflect.ValueOf(1.0)), domain.ErrTypeMismatch)
}

type Labelled interface{ Label() string }

type Tagged interface {
	Labelled
	Tag() string
	Rename(name string)
}

type badge struct{ label, tag string }

func (b *badge) Label() string      { return b.label }
func (b *badge) Tag() string        { return b.tag }
func (b *badge) Rename(name string) { b.label = name }

func TestMembers_Interface(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[Tagged](), typeinfo.Options{})
	assert.Equal(t, []string{"Label", "Tag"}, memberNames(ms), "embedded interface methods are included")

	v, ok := find(t, ms, "Label").Get(reflect.ValueOf(&badge{label: "east", tag: "e"}))
	require.True(t, ok)
	assert.Equal(t, "east", v.Interface())
	assert.False(t, find(t, ms, "Label").CanWrite())
}

func TestMembers_NonStruct(t *testing.T) {
	assert.Empty(t, typeinfo.Members(reflect.TypeFor[int](), typeinfo.Options{}))
	assert.Empty(t, typeinfo.Members(nil, typeinfo.Options{}))
}
