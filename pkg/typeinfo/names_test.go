package typeinfo_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_Builtins(t *testing.T) {
	n := typeinfo.NewNames()

	typ, ok := n.Lookup("float64")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[float64](), typ)

	typ, ok = n.Lookup("domain.Vector3D")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[domain.Vector3D](), typ)

	typ, ok = n.Lookup("github.com/aretw0/prism/pkg/domain.Vector2D")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[domain.Vector2D](), typ)

	_, ok = n.Lookup("no.Such")
	assert.False(t, ok)
}

func TestNames_RegisterType(t *testing.T) {
	n := typeinfo.NewNames()
	before := n.Len()

	typeinfo.RegisterType[Sample](n, "sample")
	typeinfo.RegisterType[fmt.Stringer](n)

	typ, ok := n.Lookup("sample")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[Sample](), typ)

	typ, ok = n.Lookup("typeinfo_test.Sample")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[Sample](), typ)

	assert.Greater(t, n.Len(), before)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[fmt.Stringer]()}, n.Interfaces())

	entries := n.Entries()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Name, entries[i].Name)
	}
}
