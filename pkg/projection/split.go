package projection

import (
	"context"
	"errors"
	"reflect"

	"github.com/aretw0/prism/pkg/cache"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
)

// Fixed port names of a Split.
const (
	PortInput        = "Input"
	PortNilOnNull    = "Nil on Null"
	PortTopLevelType = "Top Level Type"
	PortValid        = "Valid"
)

var (
	splitReserved = []string{PortInput, PortNilOnNull, PortTopLevelType, PortValid}
	stringType    = reflect.TypeFor[string]()
	boolType      = reflect.TypeFor[bool]()
)

// Split projects a spread of objects onto one output port per member.
type Split struct {
	settings
	typ   reflect.Type
	reg   *registry.Registry
	cache *cache.Cache

	layout      Layout
	owned       ownership
	initialized bool
	dirty       bool
	reads       int
}

// NewSplit creates a Split for typ on reg. A nil cache disables object caching.
// Ports are declared by Init, or lazily on the first Evaluate.
func NewSplit(typ reflect.Type, reg *registry.Registry, c *cache.Cache, opts ...Option) *Split {
	return &Split{
		settings: newSettings(opts),
		typ:      typ,
		reg:      reg,
		cache:    c,
	}
}

// Type returns the projected type.
func (s *Split) Type() reflect.Type { return s.typ }

// Registry returns the registry the Split declares its ports on.
func (s *Split) Registry() *registry.Registry { return s.reg }

// Layout returns the current member layout.
func (s *Split) Layout() Layout { return s.layout }

// Reads returns how many member values were obtained by reflection since creation.
// Values copied from the object cache are not counted.
func (s *Split) Reads() int { return s.reads }

// SetObjectCache toggles use of the shared object cache.
func (s *Split) SetObjectCache(enabled bool) {
	if s.useCache != enabled {
		s.useCache = enabled
		s.dirty = true
	}
}

// Init declares the input port, the fixed outputs and one output per eligible member.
// Ports left over from a previous type are removed; ports whose name and type are
// unchanged keep their channel. On failure the Split is left uninitialized and the
// next Init or Evaluate redeclares everything.
func (s *Split) Init() error {
	s.initialized = false
	s.layout = Layout{}
	if s.typ == nil {
		return zerr.Wrap(domain.ErrUnboundType, "no type to project")
	}
	layout, dropped := buildLayout(layoutRequest{
		typ:       s.typ,
		dir:       typeinfo.Reading,
		policy:    s.policy,
		opts:      s.typeOpts,
		transform: s.transform,
		reserved:  splitReserved,
	})
	for _, d := range dropped {
		s.logger.Warn("member not projected", "type", typeinfo.Name(s.typ), "member", d.member, "reason", d.reason)
	}

	s.owned.begin(s.reg, domain.ScopeInput, domain.ScopeOutput)
	layout, err := s.declarePorts(layout)
	if err != nil {
		s.owned.abort(s.reg, domain.ScopeInput, domain.ScopeOutput)
		return zerr.With(err, "type", typeinfo.Name(s.typ))
	}
	s.owned.end(s.reg, domain.ScopeInput, domain.ScopeOutput)

	s.layout = layout
	s.initialized = true
	s.dirty = true
	s.logger.Debug("split initialized", "type", typeinfo.Name(s.typ), "members", len(layout.Bindings))
	return nil
}

func (s *Split) declarePorts(layout Layout) (Layout, error) {
	if err := s.owned.add(s.reg, domain.ScopeInput, PortInput, s.typ, false, domain.PortAttrs{Order: 0}, nil); err != nil {
		return layout, err
	}
	nilOnNull := domain.PortAttrs{Order: 1, IsToggle: true, Default: s.nilOnNull, DefaultBool: s.nilOnNull}
	if err := s.owned.add(s.reg, domain.ScopeInput, PortNilOnNull, boolType, false, nilOnNull, nil); err != nil {
		return layout, err
	}
	if err := s.owned.add(s.reg, domain.ScopeOutput, PortTopLevelType, stringType, false, domain.PortAttrs{Order: 0}, nil); err != nil {
		return layout, err
	}
	if err := s.owned.add(s.reg, domain.ScopeOutput, PortValid, boolType, false, domain.PortAttrs{Order: 1}, nil); err != nil {
		return layout, err
	}

	kept := layout.Bindings[:0]
	order := 2
	for _, b := range layout.Bindings {
		ok, err := s.declare(b, &order)
		if err != nil {
			return layout, err
		}
		if ok {
			kept = append(kept, b)
		}
	}
	layout.Bindings = kept
	layout.Fingerprint = fingerprint(layout)

	for _, b := range layout.Bindings {
		for _, key := range s.exposeTags {
			attrs := domain.PortAttrs{Order: order, Visibility: domain.VisibilityHidden}
			order++
			if err := s.owned.add(s.reg, domain.ScopeOutput, tagPort(b, key), stringType, false, attrs, nil); err != nil {
				return layout, err
			}
		}
	}
	return layout, nil
}

func (s *Split) declare(b Binding, order *int) (bool, error) {
	binSized := b.Kind != domain.KindScalar
	types := []reflect.Type{b.HostElem}
	if b.Kind == domain.KindDictionary {
		types = []reflect.Type{b.HostKey, b.HostElem}
	}
	for i, name := range b.Ports {
		attrs := domain.PortAttrs{Order: *order}
		*order++
		if err := s.owned.add(s.reg, domain.ScopeOutput, name, types[i], binSized, attrs, b.Member); err != nil {
			if errors.Is(err, domain.ErrPointerElement) {
				s.logger.Warn("member skipped", "member", b.Member.Name, "error", err)
				for _, declared := range b.Ports[:i] {
					s.owned.remove(s.reg, domain.ScopeOutput, declared)
				}
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func tagPort(b Binding, key string) string {
	return b.Member.PortName + " " + key
}

// Retarget switches the Split to typ and redeclares its ports.
func (s *Split) Retarget(typ reflect.Type) error {
	if s.initialized && typ == s.typ {
		return nil
	}
	s.typ = typ
	return s.Init()
}

// Evaluate projects every slice of the input onto the output ports.
// It does nothing when no input changed since the previous call, or while the
// Split has no type.
func (s *Split) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.typ == nil {
		return nil
	}
	if !s.initialized {
		if err := s.Init(); err != nil {
			return err
		}
	}

	in := s.reg.Channel(domain.ScopeInput, PortInput)
	n := in.Len()
	if n > 0 && s.nilOnNullEnabled() && typeinfo.IsNil(reflect.ValueOf(in.Get(0))) {
		n = 0
	}
	if n == 0 {
		s.resize(0)
		s.dirty = false
		return nil
	}

	if !s.dirty && !s.owned.changed(s.reg) {
		return nil
	}
	s.dirty = false

	s.resize(n)
	for i := range n {
		if err := s.project(i, in.Get(i)); err != nil {
			return zerr.With(err, "slice", i)
		}
	}
	return nil
}

func (s *Split) resize(n int) {
	for _, name := range s.owned.names(domain.ScopeOutput) {
		s.reg.Channel(domain.ScopeOutput, name).SetLen(n)
	}
}

func (s *Split) nilOnNullEnabled() bool {
	ch := s.reg.Channel(domain.ScopeInput, PortNilOnNull)
	if ch == nil {
		return false
	}
	on, _ := ch.Get(0).(bool)
	return on
}

func (s *Split) project(i int, obj any) error {
	rv := reflect.ValueOf(obj)
	if typeinfo.IsNil(rv) {
		return s.projectNull(i)
	}

	if err := s.set(PortTopLevelType, i, rv.Type().String()); err != nil {
		return err
	}
	if err := s.set(PortValid, i, true); err != nil {
		return err
	}

	var entry *cache.Entry
	if s.useCache && s.cache != nil {
		if id, ok := cache.IdentityOf(obj); ok {
			entry = s.cache.GetOrCreate(id)
		}
	}

	for _, b := range s.layout.Bindings {
		var slot *cache.Slot
		if entry != nil {
			slot = entry.Member(b.slot)
			if slot.WrittenThisFrame() {
				if vals, ok := slot.Read(b.Kind); ok && len(vals) == len(b.Ports) {
					s.emitMember(s.hooks.OnCacheHit, domain.EventCacheHit, rv.Type(), b, i)
					if err := s.write(b, i, vals); err != nil {
						return err
					}
					continue
				}
			}
		}

		vals := s.read(rv, b)
		s.reads++
		s.emitMember(s.hooks.OnMemberRead, domain.EventMemberRead, rv.Type(), b, i)
		if slot != nil {
			slot.Write(b.Kind, vals...)
		}
		if err := s.write(b, i, vals); err != nil {
			return err
		}
	}
	return s.writeTags(i)
}

func (s *Split) projectNull(i int) error {
	if err := s.set(PortTopLevelType, i, ""); err != nil {
		return err
	}
	if err := s.set(PortValid, i, false); err != nil {
		return err
	}
	for _, b := range s.layout.Bindings {
		if err := s.write(b, i, s.empty(b)); err != nil {
			return err
		}
	}
	return s.writeTags(i)
}

func (s *Split) read(obj reflect.Value, b Binding) []any {
	v, ok := b.Member.Get(obj)
	return s.hostValues(b, v, ok)
}

func (s *Split) write(b Binding, i int, vals []any) error {
	for j, name := range b.Ports {
		if err := s.set(name, i, vals[j]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Split) writeTags(i int) error {
	for _, b := range s.layout.Bindings {
		for _, key := range s.exposeTags {
			if err := s.set(tagPort(b, key), i, b.Member.Tag.Get(key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Split) set(port string, i int, v any) error {
	ch := s.reg.Channel(domain.ScopeOutput, port)
	if ch == nil {
		return zerr.With(zerr.Wrap(domain.ErrPortNotFound, "output missing"), "port", port)
	}
	return ch.Set(i, v)
}

func (s *Split) emitMember(fn func(*domain.MemberEvent), typ domain.EventType, obj reflect.Type, b Binding, i int) {
	if fn == nil {
		return
	}
	fn(&domain.MemberEvent{
		Type:   typ,
		Node:   s.reg.Node(),
		Object: obj,
		Member: b.Member.Name,
		Slice:  i,
	})
}
