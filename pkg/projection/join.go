package projection

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
)

// PortOutput is the output port of a Join.
const PortOutput = "Output"

var joinReserved = []string{PortOutput}

// Join builds instances of a type from one input port per writable member.
type Join struct {
	settings
	typ reflect.Type
	reg *registry.Registry

	layout      Layout
	owned       ownership
	initialized bool
	dirty       bool
}

// NewJoin creates a Join for typ on reg.
// Ports are declared by Init, or lazily on the first Evaluate.
func NewJoin(typ reflect.Type, reg *registry.Registry, opts ...Option) *Join {
	return &Join{
		settings: newSettings(opts),
		typ:      typ,
		reg:      reg,
	}
}

// Type returns the built type.
func (j *Join) Type() reflect.Type { return j.typ }

// Registry returns the registry the Join declares its ports on.
func (j *Join) Registry() *registry.Registry { return j.reg }

// Layout returns the current member layout.
func (j *Join) Layout() Layout { return j.layout }

// Init declares the output port and one input per writable member, seeded with the
// member's value on a freshly constructed instance. On failure the Join is left
// uninitialized and the next Init or Evaluate redeclares everything.
func (j *Join) Init() error {
	j.initialized = false
	j.layout = Layout{}
	if j.typ == nil {
		return zerr.Wrap(domain.ErrUnboundType, "no type to project")
	}
	layout, dropped := buildLayout(layoutRequest{
		typ:       j.typ,
		dir:       typeinfo.Writing,
		policy:    j.policy,
		opts:      j.typeOpts,
		transform: j.transform,
		reserved:  joinReserved,
	})
	for _, d := range dropped {
		j.logger.Warn("member not joined", "type", typeinfo.Name(j.typ), "member", d.member, "reason", d.reason)
	}

	proto, err := j.instance()
	if err != nil {
		return err
	}

	j.owned.begin(j.reg, domain.ScopeInput, domain.ScopeOutput)
	layout, err = j.declarePorts(layout, proto)
	if err != nil {
		j.owned.abort(j.reg, domain.ScopeInput, domain.ScopeOutput)
		return zerr.With(err, "type", typeinfo.Name(j.typ))
	}
	j.owned.end(j.reg, domain.ScopeInput, domain.ScopeOutput)

	j.layout = layout
	j.initialized = true
	j.dirty = true
	j.logger.Debug("join initialized", "type", typeinfo.Name(j.typ), "members", len(layout.Bindings))
	return nil
}

func (j *Join) declarePorts(layout Layout, proto reflect.Value) (Layout, error) {
	if err := j.owned.add(j.reg, domain.ScopeOutput, PortOutput, j.typ, false, domain.PortAttrs{}, nil); err != nil {
		return layout, err
	}
	kept := layout.Bindings[:0]
	order := 0
	for _, b := range layout.Bindings {
		ok, err := j.declare(b, proto, &order)
		if err != nil {
			return layout, err
		}
		if ok {
			kept = append(kept, b)
		}
	}
	layout.Bindings = kept
	layout.Fingerprint = fingerprint(layout)
	return layout, nil
}

func (j *Join) declare(b Binding, proto reflect.Value, order *int) (bool, error) {
	defaults := j.defaults(b, proto)
	types := []reflect.Type{b.HostElem}
	if b.Kind == domain.KindDictionary {
		types = []reflect.Type{b.HostKey, b.HostElem}
	}
	binSized := b.Kind != domain.KindScalar

	for i, name := range b.Ports {
		attrs := domain.PortAttrs{Order: *order}
		if b.Kind == domain.KindScalar {
			attrs = decompose(defaults[i])
			attrs.Order = *order
		} else if defaults[i].IsValid() {
			attrs.Default = defaults[i].Interface()
		}
		*order++
		if err := j.owned.add(j.reg, domain.ScopeInput, name, types[i], binSized, attrs, b.Member); err != nil {
			if errors.Is(err, domain.ErrPointerElement) {
				j.logger.Warn("member skipped", "member", b.Member.Name, "error", err)
				for _, declared := range b.Ports[:i] {
					j.owned.remove(j.reg, domain.ScopeInput, declared)
				}
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// defaults returns the host values of a member on proto, one per port.
func (j *Join) defaults(b Binding, proto reflect.Value) []reflect.Value {
	out := make([]reflect.Value, len(b.Ports))
	if !proto.IsValid() || !b.Member.CanRead() {
		return out
	}
	v, ok := b.Member.Get(proto)
	if !ok {
		return out
	}
	for i, val := range j.hostValues(b, v, true) {
		out[i] = reflect.ValueOf(val)
	}
	return out
}

// Retarget switches the Join to typ and redeclares its ports.
func (j *Join) Retarget(typ reflect.Type) error {
	if j.initialized && typ == j.typ {
		return nil
	}
	j.typ = typ
	return j.Init()
}

// Evaluate builds one instance per slice. The slice count is the largest input
// length, or 0 when any member input is empty. A type without members yields one instance.
func (j *Join) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.typ == nil {
		return nil
	}
	if !j.initialized {
		if err := j.Init(); err != nil {
			return err
		}
	}
	if !j.dirty && !j.owned.changed(j.reg) {
		return nil
	}
	j.dirty = false

	n := j.spread()

	out := j.reg.Channel(domain.ScopeOutput, PortOutput)
	out.SetLen(n)
	for i := range n {
		obj, err := j.Build(i)
		if err != nil {
			return zerr.With(err, "slice", i)
		}
		if err := out.Set(i, obj); err != nil {
			return zerr.With(err, "slice", i)
		}
	}
	return nil
}

func (j *Join) spread() int {
	inputs := j.owned.names(domain.ScopeInput)
	if len(inputs) == 0 {
		return 1
	}
	hi, lo := 0, -1
	for _, name := range inputs {
		n := j.reg.Channel(domain.ScopeInput, name).Len()
		hi = max(hi, n)
		if lo < 0 || n < lo {
			lo = n
		}
	}
	if lo == 0 {
		return 0
	}
	return hi
}

// Build constructs a new instance from slice i of the inputs.
func (j *Join) Build(i int) (any, error) {
	obj, err := j.instance()
	if err != nil {
		return nil, err
	}
	j.fill(obj, i)
	return obj.Interface(), nil
}

// Fill writes slice i of the inputs into an existing instance.
// target must be a non-nil pointer or a map.
func (j *Join) Fill(target any, i int) error {
	rv := reflect.ValueOf(target)
	if typeinfo.IsNil(rv) || (rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Map) {
		return zerr.Wrap(domain.ErrTypeMismatch, fmt.Sprintf("cannot fill %T", target))
	}
	if !j.initialized {
		if err := j.Init(); err != nil {
			return err
		}
	}
	j.fill(rv, i)
	return nil
}

func (j *Join) instance() (reflect.Value, error) {
	if j.ctor != nil {
		v := reflect.ValueOf(j.ctor())
		if !v.IsValid() || !v.Type().AssignableTo(j.typ) {
			err := zerr.Wrap(domain.ErrNotConstructible, "constructor returned an incompatible value")
			return reflect.Value{}, zerr.With(err, "type", typeinfo.Name(j.typ))
		}
		out := reflect.New(j.typ).Elem()
		out.Set(v)
		return out, nil
	}
	switch j.typ.Kind() {
	case reflect.Pointer:
		return reflect.New(j.typ.Elem()), nil
	case reflect.Map:
		return reflect.MakeMap(j.typ), nil
	case reflect.Interface:
		return reflect.Value{}, zerr.With(zerr.Wrap(domain.ErrNotConstructible, "interface type"), "type", typeinfo.Name(j.typ))
	default:
		return reflect.New(j.typ).Elem(), nil
	}
}

func (j *Join) fill(obj reflect.Value, i int) {
	for _, b := range j.layout.Bindings {
		switch b.Kind {
		case domain.KindDictionary:
			j.fillDictionary(obj, b, i)
		case domain.KindEnumerable:
			j.fillEnumerable(obj, b, i)
		default:
			j.fillScalar(obj, b, i)
		}
	}
}

func (j *Join) input(name string, i int) reflect.Value {
	ch := j.reg.Channel(domain.ScopeInput, name)
	if ch == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(ch.Get(i))
}

func (j *Join) fillScalar(obj reflect.Value, b Binding, i int) {
	val, err := j.transform.FromHost(j.input(b.Ports[0], i), b.Member.Type)
	if err == nil {
		err = b.Member.Set(obj, val)
	}
	if err != nil {
		j.logger.Warn("member not written", "member", b.Member.Name, "error", err)
	}
}

// target returns the collection a member refers to: the settable field itself, or
// the value returned by a method getter.
func (j *Join) target(obj reflect.Value, b Binding) (reflect.Value, bool) {
	if f, ok := b.Member.Field(obj); ok {
		return f, true
	}
	return b.Member.Get(obj)
}

func (j *Join) fillEnumerable(obj reflect.Value, b Binding, i int) {
	bin := j.input(b.Ports[0], i)
	if !bin.IsValid() || bin.Kind() != reflect.Slice {
		return
	}
	coll, ok := j.target(obj, b)
	if !ok || !j.enumHooks.Clear(coll) {
		j.logger.Debug("enumerable not writable", "member", b.Member.Name)
		return
	}
	for k := range bin.Len() {
		elem, err := j.transform.FromHost(bin.Index(k), b.Elem)
		if err != nil {
			j.logger.Warn("element dropped", "member", b.Member.Name, "index", k, "error", err)
			continue
		}
		if !j.enumHooks.Add(coll, k, elem) {
			break
		}
	}
}

func (j *Join) fillDictionary(obj reflect.Value, b Binding, i int) {
	keys, vals := j.input(b.Ports[0], i), j.input(b.Ports[1], i)
	if !keys.IsValid() || !vals.IsValid() || keys.Kind() != reflect.Slice || vals.Kind() != reflect.Slice {
		return
	}
	dict, ok := j.target(obj, b)
	if !ok {
		return
	}
	n := min(keys.Len(), vals.Len())

	if dict.Kind() == reflect.Map {
		if dict.IsNil() {
			if !dict.CanSet() {
				return
			}
			dict.Set(reflect.MakeMapWithSize(dict.Type(), n))
		}
		dict.Clear()
		for k := range n {
			kv, vv, ok := j.pair(b, keys.Index(k), vals.Index(k))
			if ok {
				dict.SetMapIndex(kv, vv)
			}
		}
		return
	}

	if typeinfo.IsNil(dict) {
		j.logger.Debug("dictionary is nil", "member", b.Member.Name)
		return
	}
	set := callable(dict, "Set", 2)
	del := callable(dict, "Delete", 1)
	if !set.IsValid() || !del.IsValid() {
		j.logger.Debug("dictionary not writable", "member", b.Member.Name)
		return
	}
	existing, _ := b.Member.Shape.Entries(dict)
	for _, k := range existing {
		del.Call([]reflect.Value{k})
	}
	for k := range n {
		kv, vv, ok := j.pair(b, keys.Index(k), vals.Index(k))
		if ok {
			set.Call([]reflect.Value{kv, vv})
		}
	}
}

func (j *Join) pair(b Binding, key, val reflect.Value) (reflect.Value, reflect.Value, bool) {
	kv, err := j.transform.FromHost(key, b.Key)
	if err != nil {
		j.logger.Warn("key dropped", "member", b.Member.Name, "error", err)
		return kv, kv, false
	}
	vv, err := j.transform.FromHost(val, b.Elem)
	if err != nil {
		j.logger.Warn("value dropped", "member", b.Member.Name, "error", err)
		return kv, vv, false
	}
	return kv, vv, true
}
