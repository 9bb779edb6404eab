package rebind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
)

// TypePort returns the name of the config port selecting the group's type by name.
func TypePort(group string) string { return group + " Type" }

// LearnReferencePort returns the name of the input holding the value to learn from.
func LearnReferencePort(group string) string { return "Learn " + group + " Type Reference" }

// LearnLevelPort returns the name of the input selecting the lineage level to learn.
func LearnLevelPort(group string) string { return "Learn " + group + " Type Inheritance Level" }

// LearnPort returns the name of the bang input that triggers learning.
func LearnPort(group string) string { return "Learn " + group + " Type" }

var (
	anyType    = reflect.TypeFor[any]()
	stringType = reflect.TypeFor[string]()
	intType    = reflect.TypeFor[int]()
	boolType   = reflect.TypeFor[bool]()
)

// Dependant is rebuilt against every newly bound type.
// projection.Split and projection.Join implement it.
type Dependant interface {
	Retarget(t reflect.Type) error
}

// Shape selects how a governed port carries the bound type.
type Shape int

const (
	// Single ports hold one value of the bound type per slice.
	Single Shape = iota
	// Bin ports hold a slice of the bound type per slice.
	Bin
)

type governed struct {
	scope domain.Scope
	name  string
	shape Shape
	attrs domain.PortAttrs
}

// Group governs the element type of a set of ports.
// It is not safe for concurrent use.
type Group struct {
	name        string
	reg         *registry.Registry
	names       *typeinfo.Names
	aliases     *Aliases
	onlyAliases bool
	initial     string
	logger      *slog.Logger
	hooks       domain.LifecycleHooks

	ports       []governed
	dependants  []Dependant
	bound       reflect.Type
	initialized bool
	lastName    string
	retry       bool
}

// Option configures a Group.
type Option func(*Group)

// WithNames sets the table used to resolve full type names and registered interfaces.
func WithNames(names *typeinfo.Names) Option {
	return func(g *Group) {
		g.names = names
	}
}

// WithAliases replaces the default alias table.
func WithAliases(a *Aliases) Option {
	return func(g *Group) {
		g.aliases = a
	}
}

// WithOnlyAliases restricts name resolution to the alias table.
func WithOnlyAliases(only bool) Option {
	return func(g *Group) {
		g.onlyAliases = only
	}
}

// WithInitialType sets the default of the type name config port.
func WithInitialType(name string) Option {
	return func(g *Group) {
		g.initial = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Group) {
		g.logger = logger
	}
}

// WithLifecycleHooks registers type change hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Group) {
		g.hooks = hooks
	}
}

// New creates an unbound group named name declaring its ports on reg.
func New(name string, reg *registry.Registry, opts ...Option) *Group {
	g := &Group{name: name, reg: reg}
	for _, opt := range opts {
		opt(g)
	}
	if g.names == nil {
		g.names = typeinfo.NewNames()
	}
	if g.aliases == nil {
		g.aliases = DefaultAliases()
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g.logger = g.logger.With("group", name)
	return g
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Bound returns the bound type, or nil while unbound.
func (g *Group) Bound() reflect.Type { return g.bound }

// IsBound reports whether a type is bound.
func (g *Group) IsBound() bool { return g.bound != nil }

// Init declares the type selection and learning ports.
func (g *Group) Init() error {
	decls := []struct {
		scope domain.Scope
		name  string
		typ   reflect.Type
		attrs domain.PortAttrs
	}{
		{domain.ScopeConfig, TypePort(g.name), stringType, domain.PortAttrs{Default: g.initial, DefaultString: g.initial}},
		{domain.ScopeInput, LearnReferencePort(g.name), anyType, domain.PortAttrs{Order: 100}},
		{domain.ScopeInput, LearnLevelPort(g.name), intType, domain.PortAttrs{Order: 101, Default: 0, DefaultValues: []float64{0}}},
		{domain.ScopeInput, LearnPort(g.name), boolType, domain.PortAttrs{Order: 102, IsBang: true}},
	}
	for _, d := range decls {
		if _, err := g.reg.Add(d.scope, d.name, d.typ, false, d.attrs, nil); err != nil {
			return err
		}
	}
	g.initialized = true
	return nil
}

// Attach registers a dependant. It is retargeted immediately when the group is
// already bound, otherwise on the first successful binding.
func (g *Group) Attach(d Dependant) error {
	g.dependants = append(g.dependants, d)
	if g.bound == nil {
		return nil
	}
	return d.Retarget(g.bound)
}

// AddInput declares an input port carrying the bound type.
func (g *Group) AddInput(name string, shape Shape, attrs domain.PortAttrs) (*registry.Port, error) {
	return g.add(domain.ScopeInput, name, shape, attrs)
}

// AddOutput declares an output port carrying the bound type.
func (g *Group) AddOutput(name string, shape Shape, attrs domain.PortAttrs) (*registry.Port, error) {
	return g.add(domain.ScopeOutput, name, shape, attrs)
}

func (g *Group) add(scope domain.Scope, name string, shape Shape, attrs domain.PortAttrs) (*registry.Port, error) {
	if g.bound == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnboundType, "cannot declare port"), "port", name)
	}
	p, err := g.reg.Add(scope, name, g.bound, shape == Bin, attrs, nil)
	if err != nil {
		return nil, err
	}
	g.ports = append(g.ports, governed{scope: scope, name: name, shape: shape, attrs: attrs})
	return p, nil
}

// Resolve maps a type name to a type: the alias table first, then the full type
// names, unless the group only accepts aliases.
func (g *Group) Resolve(name string) (reflect.Type, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		if t, ok := g.aliases.Lookup(name); ok {
			return t, nil
		}
		if !g.onlyAliases {
			if t, ok := g.names.Lookup(name); ok {
				return t, nil
			}
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrTypeNotResolved, "unknown type name"), "name", name)
}

// Learn binds the type found at level in the lineage of v.
func (g *Group) Learn(v any, level int) (reflect.Type, error) {
	t, ok := Learn(v, level, g.names)
	if !ok {
		return nil, zerr.Wrap(domain.ErrTypeNotResolved, "nothing to learn from")
	}
	g.emit(g.hooks.OnTypeLearnt, domain.EventTypeLearnt, g.bound, t)
	if err := g.Bind(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Bind transitions the group to t: every governed port is retyped under its
// existing name and every dependant is retargeted. Binding the current type is a no-op.
// The group only records t as bound when every port and dependant accepted it, so a
// failed Bind can be retried with the same type.
func (g *Group) Bind(t reflect.Type) error {
	if t == nil {
		return zerr.Wrap(domain.ErrTypeNotResolved, "cannot bind nil type")
	}
	if typeinfo.IsPointerShaped(t) {
		return zerr.With(zerr.Wrap(domain.ErrPointerElement, "cannot bind"), "type", typeinfo.Name(t))
	}
	if t == g.bound {
		return nil
	}
	from := g.bound
	g.emit(g.hooks.OnTypeChangeBegin, domain.EventTypeChangeBegin, from, t)

	var errs []error
	for _, p := range g.ports {
		if _, exists := g.reg.Port(p.scope, p.name); exists {
			_, err := g.reg.ChangeType(p.scope, p.name, t, p.shape == Bin)
			errs = append(errs, err)
			continue
		}
		_, err := g.reg.Add(p.scope, p.name, t, p.shape == Bin, p.attrs, nil)
		errs = append(errs, err)
	}
	for _, d := range g.dependants {
		if err := d.Retarget(t); err != nil {
			errs = append(errs, zerr.With(err, "group", g.name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		g.logger.Warn("type binding failed", "from", typeinfo.Name(from), "to", typeinfo.Name(t), "error", err)
		return err
	}

	g.bound = t
	g.logger.Info("type bound", "from", typeinfo.Name(from), "to", typeinfo.Name(t))
	g.emit(g.hooks.OnTypeChangeEnd, domain.EventTypeChangeEnd, from, t)
	return nil
}

// Evaluate binds the configured type name when it changed, and learns from the
// reference input when the learn bang fires while the reference is connected.
// Names that do not resolve, or whose binding fails, leave the group as it is and are
// tried again on every following cycle until they bind or the name changes.
func (g *Group) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.initialized {
		if err := g.Init(); err != nil {
			return err
		}
	}

	typeName, _ := g.reg.Channel(domain.ScopeConfig, TypePort(g.name)).Get(0).(string)
	if changed := typeName != g.lastName; changed || g.retry {
		g.lastName = typeName
		g.retry = false
		if strings.TrimSpace(typeName) != "" {
			t, err := g.Resolve(typeName)
			if err != nil {
				// The name may be registered later.
				g.retry = true
				if changed {
					g.logger.Warn("type name not resolved", "name", typeName)
				}
			} else if err := g.Bind(t); err != nil {
				g.retry = true
				return err
			}
		}
	}

	learn := g.reg.Channel(domain.ScopeInput, LearnPort(g.name))
	fire, _ := learn.Get(0).(bool)
	if !fire || !learn.Changed() {
		return nil
	}
	ref := g.reg.Channel(domain.ScopeInput, LearnReferencePort(g.name))
	if !ref.Connected() {
		g.logger.Debug("learn ignored, reference not connected")
		return nil
	}
	level, _ := g.reg.Channel(domain.ScopeInput, LearnLevelPort(g.name)).Get(0).(int)
	t, err := g.Learn(ref.Get(0), level)
	if err != nil {
		if errors.Is(err, domain.ErrTypeNotResolved) {
			g.logger.Warn("learn failed", "error", err)
			return nil
		}
		return err
	}
	g.lastName = t.String()
	g.retry = false
	return g.reg.Channel(domain.ScopeConfig, TypePort(g.name)).Set(0, g.lastName)
}

func (g *Group) emit(fn func(*domain.RebindEvent), typ domain.EventType, from, to reflect.Type) {
	if fn == nil {
		return
	}
	fn(&domain.RebindEvent{
		Type:  typ,
		Node:  g.reg.Node(),
		Group: g.name,
		From:  from,
		To:    to,
	})
}

// String describes the group and its bound type.
func (g *Group) String() string {
	return fmt.Sprintf("%s(%s)", g.name, typeinfo.Name(g.bound))
}
