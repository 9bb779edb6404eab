package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/prism/pkg/adapters/memory"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports/mocks"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	intType    = reflect.TypeFor[int]()
	stringType = reflect.TypeFor[string]()
)

func TestRegistry_AddIsIdempotent(t *testing.T) {
	factory := memory.NewFactory()
	reg := registry.New(factory)

	first, err := reg.Add(domain.ScopeOutput, "Count", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	second, err := reg.Add(domain.ScopeOutput, "Count", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first.Channel(), second.Channel())
	assert.Equal(t, 1, factory.Live())
}

func TestRegistry_AddWithNewTypeRetypesInPlace(t *testing.T) {
	factory := memory.NewFactory()
	reg := registry.New(factory)

	_, err := reg.Add(domain.ScopeOutput, "A", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	p, err := reg.Add(domain.ScopeOutput, "B", intType, false, domain.PortAttrs{}, "meta")
	require.NoError(t, err)
	old := p.Channel()
	_, err = reg.Add(domain.ScopeOutput, "C", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)

	retyped, err := reg.Add(domain.ScopeOutput, "B", stringType, true, domain.PortAttrs{Order: 4}, "meta")
	require.NoError(t, err)

	assert.Same(t, p, retyped)
	assert.NotSame(t, old, retyped.Channel())
	assert.Equal(t, stringType, retyped.Type)
	assert.True(t, retyped.BinSized)
	assert.Equal(t, 4, retyped.Attrs.Order)
	assert.Equal(t, []string{"A", "B", "C"}, reg.Names(domain.ScopeOutput), "retyping keeps the declaration position")
	assert.Equal(t, 3, factory.Live(), "the old channel is disposed")
}

func TestRegistry_ChangeTypePreservesMetadata(t *testing.T) {
	reg := registry.New(memory.NewFactory())

	_, err := reg.Add(domain.ScopeInput, "Value", intType, false, domain.PortAttrs{Order: 2, Visibility: domain.VisibilityHidden}, 42)
	require.NoError(t, err)

	p, err := reg.ChangeType(domain.ScopeInput, "Value", stringType, false)
	require.NoError(t, err)
	assert.Equal(t, "Value", p.Name)
	assert.Equal(t, 2, p.Attrs.Order)
	assert.Equal(t, domain.VisibilityHidden, p.Attrs.Visibility)
	assert.Equal(t, 42, p.Data)
	assert.Equal(t, stringType, p.Channel().Spec().Type)

	_, err = reg.ChangeType(domain.ScopeInput, "Missing", stringType, false)
	assert.ErrorIs(t, err, domain.ErrPortNotFound)
}

func TestRegistry_RejectsPointerShaped(t *testing.T) {
	factory := memory.NewFactory()
	reg := registry.New(factory)

	p, err := reg.Add(domain.ScopeOutput, "Addr", reflect.TypeFor[uintptr](), false, domain.PortAttrs{}, nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, domain.ErrPointerElement)
	assert.Empty(t, reg.Names(domain.ScopeOutput))
	assert.Equal(t, 0, factory.Live())

	_, err = reg.Add(domain.ScopeOutput, "Swap", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	_, err = reg.ChangeType(domain.ScopeOutput, "Swap", reflect.TypeFor[uintptr](), false)
	assert.ErrorIs(t, err, domain.ErrPointerElement)
	_, exists := reg.Port(domain.ScopeOutput, "Swap")
	assert.False(t, exists, "a port retyped to a pointer-shaped type is dropped")
}

func TestRegistry_Exchange(t *testing.T) {
	reg := registry.New(memory.NewFactory())
	for _, name := range []string{"A", "B", "C"} {
		_, err := reg.Add(domain.ScopeOutput, name, intType, false, domain.PortAttrs{}, nil)
		require.NoError(t, err)
	}
	_, err := reg.Add(domain.ScopeInput, "Keep", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)

	reg.BeginExchange(domain.ScopeOutput)
	_, err = reg.Add(domain.ScopeOutput, "B", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	_, err = reg.Add(domain.ScopeOutput, "D", stringType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	removed := reg.EndExchange(domain.ScopeOutput)

	assert.Equal(t, []string{"A", "C"}, removed)
	assert.Equal(t, []string{"B", "D"}, reg.Names(domain.ScopeOutput))
	assert.Equal(t, []string{"Keep"}, reg.Names(domain.ScopeInput), "other scopes are untouched")

	assert.Nil(t, reg.EndExchange(domain.ScopeOutput), "ending without an open exchange is a no-op")
}

func TestRegistry_AllocationFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockChannelFactory(ctrl)
	factory.EXPECT().
		Allocate(gomock.Any()).
		Return(nil, errors.New("out of handles"))

	reg := registry.New(factory, registry.WithNode("split-1"))
	p, err := reg.Add(domain.ScopeOutput, "Count", intType, false, domain.PortAttrs{}, nil)

	assert.Nil(t, p)
	require.ErrorIs(t, err, domain.ErrChannelAllocation)
	assert.Contains(t, err.Error(), "out of handles")
	assert.Empty(t, reg.Names(domain.ScopeOutput))
}

func TestRegistry_SpreadAndChanged(t *testing.T) {
	factory := memory.NewFactory()
	reg := registry.New(factory)

	assert.Equal(t, 0, reg.SpreadMax(domain.ScopeInput))
	assert.Equal(t, 0, reg.SpreadMin(domain.ScopeInput))

	a, err := reg.Add(domain.ScopeInput, "A", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	b, err := reg.Add(domain.ScopeInput, "B", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	a.Channel().SetLen(3)
	b.Channel().SetLen(2)

	assert.Equal(t, 3, reg.SpreadMax(domain.ScopeInput))
	assert.Equal(t, 2, reg.SpreadMin(domain.ScopeInput))
	assert.True(t, reg.InputChanged())

	factory.Settle()
	assert.False(t, reg.InputChanged())

	require.NoError(t, b.Channel().Set(0, 5))
	assert.True(t, reg.InputChanged())
}

func TestRegistry_HooksAndDispose(t *testing.T) {
	var events []domain.EventType
	record := func(e *domain.PortEvent) { events = append(events, e.Type) }

	factory := memory.NewFactory()
	reg := registry.New(factory, registry.WithLifecycleHooks(domain.LifecycleHooks{
		OnPortCreated: record,
		OnPortRetyped: record,
		OnPortRemoved: record,
	}))

	_, err := reg.Add(domain.ScopeConfig, "Mode", stringType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	_, err = reg.Add(domain.ScopeConfig, "Mode", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)
	_, err = reg.Add(domain.ScopeOutput, "Out", intType, false, domain.PortAttrs{}, nil)
	require.NoError(t, err)

	reg.Dispose()

	assert.Equal(t, []domain.EventType{
		domain.EventPortCreated,
		domain.EventPortRetyped,
		domain.EventPortCreated,
		domain.EventPortRemoved,
		domain.EventPortRemoved,
	}, events)
	assert.Equal(t, 0, factory.Live())
	assert.False(t, reg.Remove(domain.ScopeOutput, "Out"))
}
