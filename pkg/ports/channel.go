package ports

import (
	"reflect"

	"github.com/aretw0/prism/pkg/domain"
)

//go:generate mockgen -source=channel.go -destination=mocks/mock_channel.go -package=mocks

// ChannelSpec describes a typed channel requested from the host.
type ChannelSpec struct {
	Node     string
	Scope    domain.Scope
	Name     string
	Type     reflect.Type // element type
	BinSized bool
	Attrs    domain.PortAttrs
}

// SliceType returns the Go type stored in each slice of the channel.
// Bin-sized channels hold one []Type per slice.
func (s ChannelSpec) SliceType() reflect.Type {
	if s.Type == nil {
		return nil
	}
	if s.BinSized {
		return reflect.SliceOf(s.Type)
	}
	return s.Type
}

// Channel is a host channel holding an ordered sequence of slices.
type Channel interface {
	// Spec returns the description the channel was allocated with.
	Spec() ChannelSpec

	// Len returns the number of slices.
	Len() int

	// SetLen resizes the channel. New slices hold the zero value of the slice type.
	SetLen(n int)

	// Get returns slice i, wrapping around the length. It returns nil when the channel is empty.
	Get(i int) any

	// Set writes slice i, growing the channel when needed.
	// Returns domain.ErrTypeMismatch when v does not fit the slice type.
	Set(i int, v any) error

	// Changed reports whether the channel was written since the host last settled it.
	Changed() bool

	// Connected reports whether an upstream producer feeds the channel.
	Connected() bool

	// Dispose releases the channel. Later writes fail with domain.ErrChannelDisposed.
	Dispose()
}

// ChannelFactory allocates typed channels.
type ChannelFactory interface {
	// Allocate creates a channel for spec.
	// Failures are reported with domain.ErrChannelAllocation.
	Allocate(spec ChannelSpec) (Channel, error)
}

// Settler is implemented by factories whose channels track per-cycle change flags.
type Settler interface {
	// Settle clears the change flag of every live channel.
	Settle()
}

// Connector is implemented by channels whose connection state can be driven by the host.
type Connector interface {
	SetConnected(connected bool)
}
