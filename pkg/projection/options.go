package projection

import (
	"io"
	"log/slog"
	"reflect"
	"slices"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/aretw0/prism/pkg/typeinfo"
)

type settings struct {
	transform ValueTransform
	policy    typeinfo.Policy
	typeOpts  typeinfo.Options
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	exposeTags []string
	useCache   bool
	nilOnNull  bool

	ctor      func() any
	enumHooks EnumerableHooks
}

func newSettings(opts []Option) settings {
	s := settings{
		transform: DefaultTransform{},
		useCache:  true,
		enumHooks: DefaultEnumerableHooks(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// ownership tracks the ports a projector declared so that re-initialisation only
// reconciles its own ports.
type ownership struct {
	prev map[domain.Scope][]string
	next map[domain.Scope][]string
}

func (o *ownership) begin(reg *registry.Registry, scopes ...domain.Scope) {
	o.prev = o.next
	o.next = make(map[domain.Scope][]string)
	for _, scope := range scopes {
		reg.BeginExchangeOf(scope, o.prev[scope])
	}
}

func (o *ownership) add(reg *registry.Registry, scope domain.Scope, name string, typ reflect.Type, binSized bool, attrs domain.PortAttrs, data any) error {
	if _, err := reg.Add(scope, name, typ, binSized, attrs, data); err != nil {
		return err
	}
	o.next[scope] = append(o.next[scope], name)
	return nil
}

func (o *ownership) remove(reg *registry.Registry, scope domain.Scope, name string) {
	reg.Remove(scope, name)
	o.next[scope] = slices.DeleteFunc(o.next[scope], func(n string) bool { return n == name })
}

// names returns the owned ports of scope in declaration order.
func (o *ownership) names(scope domain.Scope) []string {
	return o.next[scope]
}

// changed reports whether any owned input changed this cycle.
func (o *ownership) changed(reg *registry.Registry) bool {
	for _, name := range o.next[domain.ScopeInput] {
		if ch := reg.Channel(domain.ScopeInput, name); ch != nil && ch.Changed() {
			return true
		}
	}
	return false
}

func (o *ownership) end(reg *registry.Registry, scopes ...domain.Scope) {
	for _, scope := range scopes {
		reg.EndExchange(scope)
	}
}

// abort closes an exchange interrupted by an error. Ports not re-declared so far are
// removed; every surviving port owned before or during the exchange stays owned so
// that the next begin reconciles all of them.
func (o *ownership) abort(reg *registry.Registry, scopes ...domain.Scope) {
	for _, scope := range scopes {
		reg.EndExchange(scope)
		var kept []string
		for _, name := range slices.Concat(o.prev[scope], o.next[scope]) {
			if _, ok := reg.Port(scope, name); ok && !slices.Contains(kept, name) {
				kept = append(kept, name)
			}
		}
		o.next[scope] = kept
	}
	o.prev = nil
}

// Option configures a Split or a Join.
type Option func(*settings)

// WithTransform replaces DefaultTransform.
func WithTransform(t ValueTransform) Option {
	return func(s *settings) {
		if t != nil {
			s.transform = t
		}
	}
}

// WithPolicy restricts the projected members.
func WithPolicy(p typeinfo.Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithTypeOptions controls member discovery.
func WithTypeOptions(o typeinfo.Options) Option {
	return func(s *settings) {
		s.typeOpts = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers member read and cache hit hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithExposedTags makes a Split publish the given struct tag keys of every member
// on hidden string ports named "<member> <key>".
func WithExposedTags(keys ...string) Option {
	return func(s *settings) {
		s.exposeTags = append(s.exposeTags, keys...)
	}
}

// WithObjectCache toggles the shared object cache of a Split. It is on by default.
func WithObjectCache(enabled bool) Option {
	return func(s *settings) {
		s.useCache = enabled
	}
}

// WithNilOnNull sets the default of a Split's "Nil on Null" port.
func WithNilOnNull(enabled bool) Option {
	return func(s *settings) {
		s.nilOnNull = enabled
	}
}

// WithConstructor makes a Join build instances with ctor instead of reflection.
// ctor must return a value assignable to the Join's type.
func WithConstructor(ctor func() any) Option {
	return func(s *settings) {
		s.ctor = ctor
	}
}

// WithEnumerableHooks overrides how a Join clears and fills enumerable members.
// Nil hooks keep the default behavior.
func WithEnumerableHooks(h EnumerableHooks) Option {
	return func(s *settings) {
		if h.Clear != nil {
			s.enumHooks.Clear = h.Clear
		}
		if h.Add != nil {
			s.enumHooks.Add = h.Add
		}
	}
}

// decompose seeds port attributes from a host default value.
// Vectors and small float arrays become their axes, booleans and strings are kept, numbers become a single
// value; anything else decomposes to 0.
func decompose(def reflect.Value) domain.PortAttrs {
	attrs := domain.PortAttrs{}
	if !def.IsValid() {
		attrs.DefaultValues = []float64{0}
		return attrs
	}
	attrs.Default = def.Interface()
	switch v := attrs.Default.(type) {
	case domain.Vector2D:
		attrs.DefaultValues = v.Axes()
	case domain.Vector3D:
		attrs.DefaultValues = v.Axes()
	case domain.Vector4D:
		attrs.DefaultValues = v.Axes()
	case bool:
		attrs.DefaultBool = v
		attrs.DefaultValues = []float64{0}
		if v {
			attrs.DefaultValues = []float64{1}
		}
	case string:
		attrs.DefaultString = v
		attrs.DefaultValues = []float64{0}
	default:
		if isNumber(def.Kind()) {
			attrs.DefaultValues = []float64{asFloat(def)}
		} else if axes, ok := arrayAxes(def); ok {
			attrs.DefaultValues = axes
		} else {
			attrs.DefaultValues = []float64{0}
		}
	}
	return attrs
}

// hostValues converts a member value to the values written on its ports.
// ok false yields the empty projection: zero scalars and empty bins.
func (s *settings) hostValues(b Binding, v reflect.Value, ok bool) []any {
	if !ok {
		return s.empty(b)
	}
	switch b.Kind {
	case domain.KindDictionary:
		keys, vals := b.Member.Shape.Entries(v)
		return []any{s.bin(keys, b.HostKey), s.bin(vals, b.HostElem)}
	case domain.KindEnumerable:
		return []any{s.bin(b.Member.Shape.Elements(v), b.HostElem)}
	default:
		return []any{s.hostValue(v, b.HostElem).Interface()}
	}
}

func (s *settings) empty(b Binding) []any {
	switch b.Kind {
	case domain.KindDictionary:
		return []any{emptyBin(b.HostKey), emptyBin(b.HostElem)}
	case domain.KindEnumerable:
		return []any{emptyBin(b.HostElem)}
	default:
		return []any{reflect.Zero(b.HostElem).Interface()}
	}
}

func emptyBin(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 0).Interface()
}

func (s *settings) bin(elems []reflect.Value, hostType reflect.Type) any {
	out := reflect.MakeSlice(reflect.SliceOf(hostType), 0, len(elems))
	for _, e := range elems {
		out = reflect.Append(out, s.hostValue(e, hostType))
	}
	return out.Interface()
}

func (s *settings) hostValue(v reflect.Value, hostType reflect.Type) reflect.Value {
	h := s.transform.ToHost(v)
	if !h.IsValid() || (h.Kind() == reflect.Interface && h.IsNil()) {
		return reflect.Zero(hostType)
	}
	if !h.Type().AssignableTo(hostType) {
		s.logger.Warn("transform produced unexpected type", "want", typeinfo.Name(hostType), "got", typeinfo.Name(h.Type()))
		return reflect.Zero(hostType)
	}
	return h
}

// arrayAxes decomposes [2], [3] and [4] arrays of floats.
func arrayAxes(v reflect.Value) ([]float64, bool) {
	if v.Kind() != reflect.Array || v.Len() < 2 || v.Len() > 4 {
		return nil, false
	}
	if k := v.Type().Elem().Kind(); k != reflect.Float32 && k != reflect.Float64 {
		return nil, false
	}
	axes := make([]float64, v.Len())
	for i := range axes {
		axes[i] = v.Index(i).Float()
	}
	return axes, true
}
