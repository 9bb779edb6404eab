package memory

import (
	"fmt"
	"reflect"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"go.trai.ch/zerr"
)

// Channel is an in-memory ports.Channel.
// It is not safe for concurrent use; the host evaluates on a single thread.
type Channel struct {
	spec      ports.ChannelSpec
	sliceType reflect.Type
	values    []any
	changed   bool
	connected bool
	disposed  bool
	factory   *Factory
}

var (
	_ ports.Channel   = (*Channel)(nil)
	_ ports.Connector = (*Channel)(nil)
)

func newChannel(spec ports.ChannelSpec, f *Factory) *Channel {
	return &Channel{
		spec:      spec,
		sliceType: spec.SliceType(),
		factory:   f,
	}
}

func (c *Channel) seed(def any) {
	if def != nil {
		if v, err := c.coerce(def); err == nil {
			c.values = []any{v}
			return
		}
	}
	c.values = []any{c.zero()}
}

// Spec returns the description the channel was allocated with.
func (c *Channel) Spec() ports.ChannelSpec { return c.spec }

// Len returns the number of slices.
func (c *Channel) Len() int { return len(c.values) }

// SetLen resizes the channel, filling new slices with zero values.
func (c *Channel) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	if n == len(c.values) {
		return
	}
	c.changed = true
	if n < len(c.values) {
		c.values = c.values[:n]
		return
	}
	for len(c.values) < n {
		c.values = append(c.values, c.zero())
	}
}

// Get returns slice i modulo the length, or nil if the channel is empty.
func (c *Channel) Get(i int) any {
	if len(c.values) == 0 {
		return nil
	}
	i %= len(c.values)
	if i < 0 {
		i += len(c.values)
	}
	return c.values[i]
}

// Set writes slice i, growing the channel when i is past the end.
func (c *Channel) Set(i int, v any) error {
	if c.disposed {
		return zerr.With(zerr.Wrap(domain.ErrChannelDisposed, "write rejected"), "port", c.spec.Name)
	}
	if i < 0 {
		return zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "negative slice index"), "port", c.spec.Name)
	}
	coerced, err := c.coerce(v)
	if err != nil {
		return err
	}
	if i >= len(c.values) {
		c.SetLen(i + 1)
	}
	if !sameValue(c.values[i], coerced) {
		c.values[i] = coerced
		c.changed = true
	}
	return nil
}

// Changed reports whether the channel was written since the factory last settled.
func (c *Channel) Changed() bool { return c.changed }

// Connected reports whether an upstream producer feeds the channel.
func (c *Channel) Connected() bool { return c.connected }

// SetConnected marks the channel as fed (or no longer fed) by an upstream producer.
func (c *Channel) SetConnected(connected bool) {
	if c.connected != connected {
		c.connected = connected
		c.changed = true
	}
}

// Dispose releases the channel.
func (c *Channel) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.values = nil
	if c.factory != nil {
		c.factory.release(c)
	}
}

func (c *Channel) zero() any {
	return reflect.Zero(c.sliceType).Interface()
}

func (c *Channel) coerce(v any) (any, error) {
	if v == nil {
		if nillable(c.sliceType) {
			return c.zero(), nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "nil for non-nillable slice type"), "port", c.spec.Name)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(c.sliceType) {
		if c.sliceType.Kind() == reflect.Interface {
			return v, nil
		}
		return rv.Convert(c.sliceType).Interface(), nil
	}
	err := zerr.Wrap(domain.ErrTypeMismatch, fmt.Sprintf("cannot store %s in %s", rv.Type(), c.sliceType))
	return nil, zerr.With(err, "port", c.spec.Name)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() || !ra.Comparable() || !rb.Comparable() {
		return false
	}
	return ra.Equal(rb)
}
