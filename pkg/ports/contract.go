package ports

import (
	"reflect"
	"testing"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChannelFactoryContract runs a suite of tests to verify that a ChannelFactory implementation
// adheres to the defined interface contract.
func RunChannelFactoryContract(t *testing.T, factory ChannelFactory) {
	t.Run("Output starts empty", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Out", Type: reflect.TypeFor[int]()})
		require.NoError(t, err)
		defer ch.Dispose()

		assert.Equal(t, 0, ch.Len())
		assert.Nil(t, ch.Get(0), "Get on an empty channel should return nil")
	})

	t.Run("Input seeded with default", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{
			Scope: domain.ScopeInput,
			Name:  "In",
			Type:  reflect.TypeFor[float64](),
			Attrs: domain.PortAttrs{Default: 1.5},
		})
		require.NoError(t, err)
		defer ch.Dispose()

		require.Equal(t, 1, ch.Len())
		assert.Equal(t, 1.5, ch.Get(0))
	})

	t.Run("SetLen fills zero values and Get wraps", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Out", Type: reflect.TypeFor[int]()})
		require.NoError(t, err)
		defer ch.Dispose()

		ch.SetLen(2)
		require.NoError(t, ch.Set(1, 7))
		assert.Equal(t, 0, ch.Get(0))
		assert.Equal(t, 7, ch.Get(1))
		assert.Equal(t, 7, ch.Get(3), "index 3 should wrap to slice 1")
		assert.True(t, ch.Changed())
	})

	t.Run("Bin-sized slices", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Bins", Type: reflect.TypeFor[string](), BinSized: true})
		require.NoError(t, err)
		defer ch.Dispose()

		require.NoError(t, ch.Set(0, []string{"a", "b"}))
		assert.Equal(t, []string{"a", "b"}, ch.Get(0))
		assert.ErrorIs(t, ch.Set(0, "a"), domain.ErrTypeMismatch)
	})

	t.Run("Nil into interface slices", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Any", Type: reflect.TypeFor[any]()})
		require.NoError(t, err)
		defer ch.Dispose()

		require.NoError(t, ch.Set(0, nil))
		require.NoError(t, ch.Set(1, "x"))
		assert.Nil(t, ch.Get(0))
		assert.Equal(t, "x", ch.Get(1))
	})

	t.Run("Write after Dispose", func(t *testing.T) {
		ch, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Gone", Type: reflect.TypeFor[int]()})
		require.NoError(t, err)

		ch.Dispose()
		assert.ErrorIs(t, ch.Set(0, 1), domain.ErrChannelDisposed)
	})

	t.Run("Allocate without element type", func(t *testing.T) {
		_, err := factory.Allocate(ChannelSpec{Scope: domain.ScopeOutput, Name: "Broken"})
		assert.ErrorIs(t, err, domain.ErrChannelAllocation)
	})
}
