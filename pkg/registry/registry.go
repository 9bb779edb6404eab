package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
)

// Port is a named, typed channel owned by a Registry.
// Ports hold no reference back to their registry.
type Port struct {
	Name     string
	Scope    domain.Scope
	Type     reflect.Type // element type
	BinSized bool
	Attrs    domain.PortAttrs
	Data     any

	channel ports.Channel
}

// Channel returns the host channel backing the port.
func (p *Port) Channel() ports.Channel { return p.channel }

type group struct {
	order   []string
	ports   map[string]*Port
	pending map[string]struct{} // non-nil while an exchange is open
}

func newGroup() *group {
	return &group{ports: make(map[string]*Port)}
}

// Registry owns the ports of one node, grouped by scope.
// It is not safe for concurrent use.
type Registry struct {
	node    string
	factory ports.ChannelFactory
	groups  map[domain.Scope]*group
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for port churn.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithNode names the node owning the registry. The name is reported in events and channel specs.
func WithNode(name string) Option {
	return func(r *Registry) {
		r.node = name
	}
}

// New creates an empty registry allocating channels from factory.
func New(factory ports.ChannelFactory, opts ...Option) *Registry {
	r := &Registry{
		factory: factory,
		groups: map[domain.Scope]*group{
			domain.ScopeConfig: newGroup(),
			domain.ScopeInput:  newGroup(),
			domain.ScopeOutput: newGroup(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.node != "" {
		r.logger = r.logger.With("node", r.node)
	}
	return r
}

// Node returns the name of the owning node.
func (r *Registry) Node() string { return r.node }

func (r *Registry) group(scope domain.Scope) *group {
	g, ok := r.groups[scope]
	if !ok {
		g = newGroup()
		r.groups[scope] = g
	}
	return g
}

// Add declares a port.
// If a port with the same name, element type and bin-sizing exists, it is returned unchanged.
// If the name exists with a different type it is retyped in place with the new attributes.
// Pointer-shaped element types are rejected with domain.ErrPointerElement and no port is created.
// Channel allocation failures are returned wrapped in domain.ErrChannelAllocation.
func (r *Registry) Add(scope domain.Scope, name string, typ reflect.Type, binSized bool, attrs domain.PortAttrs, data any) (*Port, error) {
	g := r.group(scope)
	if g.pending != nil {
		delete(g.pending, name)
	}

	if typeinfo.IsPointerShaped(typ) {
		r.logger.Debug("rejected pointer-shaped port", "scope", scope, "port", name, "type", typeinfo.Name(typ))
		if _, exists := g.ports[name]; exists {
			r.Remove(scope, name)
		}
		err := zerr.Wrap(domain.ErrPointerElement, fmt.Sprintf("cannot declare %s", typeinfo.Name(typ)))
		return nil, zerr.With(err, "port", name)
	}

	if p, ok := g.ports[name]; ok {
		if p.Type == typ && p.BinSized == binSized {
			return p, nil
		}
		p.Attrs = attrs
		p.Data = data
		return r.retype(scope, p, typ, binSized)
	}

	p := &Port{Name: name, Scope: scope, Type: typ, BinSized: binSized, Attrs: attrs, Data: data}
	ch, err := r.allocate(p)
	if err != nil {
		return nil, err
	}
	p.channel = ch
	g.ports[name] = p
	g.order = append(g.order, name)

	r.logger.Debug("port created", "scope", scope, "port", name, "type", typeinfo.Name(typ), "bin_sized", binSized)
	r.emit(r.hooks.OnPortCreated, domain.EventPortCreated, p)
	return p, nil
}

// ChangeType retypes an existing port: the old channel is disposed and a new one is
// allocated under the same name, attributes and custom data.
func (r *Registry) ChangeType(scope domain.Scope, name string, typ reflect.Type, binSized bool) (*Port, error) {
	p, ok := r.group(scope).ports[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrPortNotFound, "cannot change type"), "port", name)
	}
	if typeinfo.IsPointerShaped(typ) {
		r.Remove(scope, name)
		err := zerr.Wrap(domain.ErrPointerElement, fmt.Sprintf("cannot retype to %s", typeinfo.Name(typ)))
		return nil, zerr.With(err, "port", name)
	}
	return r.retype(scope, p, typ, binSized)
}

func (r *Registry) retype(scope domain.Scope, p *Port, typ reflect.Type, binSized bool) (*Port, error) {
	if p.channel != nil {
		p.channel.Dispose()
		p.channel = nil
	}
	p.Type = typ
	p.BinSized = binSized

	ch, err := r.allocate(p)
	if err != nil {
		r.drop(scope, p.Name)
		return nil, err
	}
	p.channel = ch

	r.logger.Debug("port retyped", "scope", scope, "port", p.Name, "type", typeinfo.Name(typ), "bin_sized", binSized)
	r.emit(r.hooks.OnPortRetyped, domain.EventPortRetyped, p)
	return p, nil
}

func (r *Registry) allocate(p *Port) (ports.Channel, error) {
	ch, err := r.factory.Allocate(ports.ChannelSpec{
		Node:     r.node,
		Scope:    p.Scope,
		Name:     p.Name,
		Type:     p.Type,
		BinSized: p.BinSized,
		Attrs:    p.Attrs,
	})
	if err == nil && ch == nil {
		err = zerr.New("factory returned no channel")
	}
	if err != nil {
		wrapped := err
		if !errors.Is(err, domain.ErrChannelAllocation) {
			wrapped = fmt.Errorf("%w: %w", domain.ErrChannelAllocation, err)
		}
		return nil, zerr.With(zerr.With(wrapped, "port", p.Name), "scope", p.Scope.String())
	}
	return ch, nil
}

// Remove disposes and deletes a port. It reports whether the port existed.
func (r *Registry) Remove(scope domain.Scope, name string) bool {
	g := r.group(scope)
	p, ok := g.ports[name]
	if !ok {
		return false
	}
	if p.channel != nil {
		p.channel.Dispose()
		p.channel = nil
	}
	r.drop(scope, name)
	r.logger.Debug("port removed", "scope", scope, "port", name)
	r.emit(r.hooks.OnPortRemoved, domain.EventPortRemoved, p)
	return true
}

func (r *Registry) drop(scope domain.Scope, name string) {
	g := r.group(scope)
	delete(g.ports, name)
	if g.pending != nil {
		delete(g.pending, name)
	}
	g.order = slices.DeleteFunc(g.order, func(n string) bool { return n == name })
}

// RemoveAll disposes every port of a scope.
func (r *Registry) RemoveAll(scope domain.Scope) {
	for _, name := range slices.Clone(r.group(scope).order) {
		r.Remove(scope, name)
	}
}

// Dispose removes every port of every scope.
func (r *Registry) Dispose() {
	for _, scope := range domain.Scopes {
		r.RemoveAll(scope)
	}
}

// BeginExchange marks every current port of scope for removal.
// Each Add during the exchange keeps its port; EndExchange removes the rest.
func (r *Registry) BeginExchange(scope domain.Scope) {
	g := r.group(scope)
	g.pending = make(map[string]struct{}, len(g.order))
	for _, name := range g.order {
		g.pending[name] = struct{}{}
	}
}

// BeginExchangeOf marks only the listed ports of scope for removal, leaving ports
// owned by other collaborators on the same registry untouched. Unknown names are ignored.
func (r *Registry) BeginExchangeOf(scope domain.Scope, names []string) {
	g := r.group(scope)
	g.pending = make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := g.ports[name]; ok {
			g.pending[name] = struct{}{}
		}
	}
}

// EndExchange removes every port of scope not re-declared since BeginExchange
// and returns their names in declaration order.
func (r *Registry) EndExchange(scope domain.Scope) []string {
	g := r.group(scope)
	if g.pending == nil {
		return nil
	}
	var stale []string
	for _, name := range g.order {
		if _, marked := g.pending[name]; marked {
			stale = append(stale, name)
		}
	}
	g.pending = nil
	for _, name := range stale {
		r.Remove(scope, name)
	}
	return stale
}

// Port returns the named port of scope.
func (r *Registry) Port(scope domain.Scope, name string) (*Port, bool) {
	p, ok := r.group(scope).ports[name]
	return p, ok
}

// Channel returns the channel of the named port, or nil if the port does not exist.
func (r *Registry) Channel(scope domain.Scope, name string) ports.Channel {
	if p, ok := r.Port(scope, name); ok {
		return p.channel
	}
	return nil
}

// Ports returns the ports of scope in declaration order.
func (r *Registry) Ports(scope domain.Scope) []*Port {
	g := r.group(scope)
	out := make([]*Port, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.ports[name])
	}
	return out
}

// Names returns the port names of scope in declaration order.
func (r *Registry) Names(scope domain.Scope) []string {
	return slices.Clone(r.group(scope).order)
}

// SpreadMax returns the largest slice count in scope, or 0 for an empty group.
func (r *Registry) SpreadMax(scope domain.Scope) int {
	hi := 0
	for _, p := range r.Ports(scope) {
		if n := p.channel.Len(); n > hi {
			hi = n
		}
	}
	return hi
}

// SpreadMin returns the smallest slice count in scope, or 0 for an empty group.
func (r *Registry) SpreadMin(scope domain.Scope) int {
	ps := r.Ports(scope)
	if len(ps) == 0 {
		return 0
	}
	lo := ps[0].channel.Len()
	for _, p := range ps[1:] {
		if n := p.channel.Len(); n < lo {
			lo = n
		}
	}
	return lo
}

// InputChanged reports whether any config or input channel changed this cycle.
func (r *Registry) InputChanged() bool {
	for _, scope := range []domain.Scope{domain.ScopeConfig, domain.ScopeInput} {
		for _, p := range r.Ports(scope) {
			if p.channel.Changed() {
				return true
			}
		}
	}
	return false
}

func (r *Registry) emit(fn func(*domain.PortEvent), typ domain.EventType, p *Port) {
	if fn == nil {
		return
	}
	fn(&domain.PortEvent{
		Type:     typ,
		Node:     r.node,
		Scope:    p.Scope,
		Name:     p.Name,
		Elem:     p.Type,
		BinSized: p.BinSized,
	})
}
