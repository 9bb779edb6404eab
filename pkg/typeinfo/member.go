package typeinfo

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/prism/pkg/domain"
	"go.trai.ch/zerr"
)

// Options controls member discovery.
type Options struct {
	// Methods exposes niladic getter methods as members. A matching SetX method
	// with one parameter makes the member writable. Interface types always expose
	// their methods, including those of embedded interfaces.
	Methods bool

	// NoFlatten lists types that are always projected as Scalar.
	NoFlatten []reflect.Type
}

func (o Options) key() string {
	names := make([]string, 0, len(o.NoFlatten))
	for _, t := range o.NoFlatten {
		names = append(names, Name(t))
	}
	slices.Sort(names)
	return fmt.Sprintf("%t|%s", o.Methods, strings.Join(names, ","))
}

func (o Options) suppressed(t reflect.Type) bool {
	return slices.Contains(o.NoFlatten, t)
}

// Member is one readable and/or writable member of a type.
type Member struct {
	Name      string // Go identifier
	PortName  string // port base name, the tag override or Name
	Type      reflect.Type
	Shape     Shape
	Tag       reflect.StructTag
	Ignored   bool
	NoFlatten bool

	index  []int // field path; nil for method members
	getter string
	setter string
}

// IsField reports whether the member is a struct field.
func (m *Member) IsField() bool { return m.index != nil }

// CanRead reports whether the member has a read accessor.
func (m *Member) CanRead() bool { return m.index != nil || m.getter != "" }

// CanWrite reports whether the member has a write accessor.
func (m *Member) CanWrite() bool { return m.index != nil || m.setter != "" }

// PointerShaped reports whether the member's type, key or element type is pointer-shaped.
func (m *Member) PointerShaped() bool {
	return IsPointerShaped(m.Type) || IsPointerShaped(m.Shape.Key) || IsPointerShaped(m.Shape.Elem)
}

// Get reads the member from obj.
// ok is false when obj, or an embedded pointer on the field path, is nil.
func (m *Member) Get(obj reflect.Value) (reflect.Value, bool) {
	obj = unwrap(obj)
	if isNil(obj) {
		return reflect.Value{}, false
	}
	if m.index != nil {
		base := obj
		for base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v, err := base.FieldByIndexErr(m.index)
		if err != nil {
			return reflect.Value{}, false
		}
		return v, true
	}
	method := methodOf(obj, m.getter)
	if !method.IsValid() {
		return reflect.Value{}, false
	}
	return method.Call(nil)[0], true
}

// Field returns the settable field of obj, allocating nil embedded pointers along the path.
// obj must be a non-nil pointer or an addressable struct.
func (m *Member) Field(obj reflect.Value) (reflect.Value, bool) {
	if m.index == nil {
		return reflect.Value{}, false
	}
	v := unwrap(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	for i, x := range m.index {
		if i > 0 {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					if !v.CanSet() {
						return reflect.Value{}, false
					}
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}

// Set writes val into the member of obj.
// An invalid val stores the zero value.
func (m *Member) Set(obj reflect.Value, val reflect.Value) error {
	if m.index != nil {
		f, ok := m.Field(obj)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "member not settable"), "member", m.Name)
		}
		if !val.IsValid() {
			f.SetZero()
			return nil
		}
		converted, err := fit(val, f.Type())
		if err != nil {
			return zerr.With(err, "member", m.Name)
		}
		f.Set(converted)
		return nil
	}

	if m.setter == "" {
		return zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "member is read-only"), "member", m.Name)
	}
	method := methodOf(unwrap(obj), m.setter)
	if !method.IsValid() {
		return zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "setter not callable"), "member", m.Name)
	}
	param := method.Type().In(0)
	if !val.IsValid() {
		val = reflect.Zero(param)
	}
	converted, err := fit(val, param)
	if err != nil {
		return zerr.With(err, "member", m.Name)
	}
	method.Call([]reflect.Value{converted})
	return nil
}

func fit(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String:
		return v.Convert(t), nil
	default:
		return reflect.Value{}, zerr.Wrap(domain.ErrTypeMismatch, fmt.Sprintf("cannot assign %s to %s", v.Type(), t))
	}
}

func methodOf(v reflect.Value, name string) reflect.Value {
	if !v.IsValid() {
		return reflect.Value{}
	}
	if m := v.MethodByName(name); m.IsValid() {
		return m
	}
	if v.CanAddr() {
		return v.Addr().MethodByName(name)
	}
	return reflect.Value{}
}

type memoKey struct {
	t    reflect.Type
	opts string
}

var memo sync.Map // memoKey -> []*Member

// Members returns the members of t, computed once per (t, opts).
// Pointer types are resolved to the struct they point to; non-struct types only
// contribute method members, which interfaces expose without Options.Methods.
func Members(t reflect.Type, opts Options) []*Member {
	if t == nil {
		return nil
	}
	key := memoKey{t: t, opts: opts.key()}
	if cached, ok := memo.Load(key); ok {
		return cached.([]*Member)
	}
	members := discover(t, opts)
	actual, _ := memo.LoadOrStore(key, members)
	return actual.([]*Member)
}

func discover(t reflect.Type, opts Options) []*Member {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	var members []*Member
	seen := make(map[string]bool)

	if base.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(base) {
			if !f.IsExported() || !reachable(base, f.Index) {
				continue
			}
			if f.Anonymous && isStructLike(f.Type) {
				continue
			}
			tag := parseTag(f.Tag)
			m := &Member{
				Name:      f.Name,
				PortName:  f.Name,
				Type:      f.Type,
				Tag:       f.Tag,
				Ignored:   tag.ignored,
				NoFlatten: tag.noFlatten || opts.suppressed(f.Type),
				index:     f.Index,
			}
			if tag.name != "" {
				m.PortName = tag.name
			}
			m.Shape = shapeFor(m)
			members = append(members, m)
			seen[f.Name] = true
		}
	}

	if opts.Methods || base.Kind() == reflect.Interface {
		members = append(members, methodMembers(t, base, opts, seen)...)
	}
	return members
}

func shapeFor(m *Member) Shape {
	if m.NoFlatten {
		return Shape{}
	}
	return Classify(m.Type)
}

// reachable reports whether every embedded field on the path is exported.
// Promoted fields of unexported embedded structs cannot be accessed through reflection.
func reachable(base reflect.Type, index []int) bool {
	t := base
	for i, x := range index {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		f := t.Field(x)
		if i < len(index)-1 && !f.IsExported() {
			return false
		}
		t = f.Type
	}
	return true
}

func isStructLike(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

var skippedMethods = map[string]bool{
	"String": true,
	"Error":  true,
	"All":    true,
	"Oldest": true,
	"Newest": true,
	"Len":    true,
}

func methodMembers(t, base reflect.Type, opts Options, seen map[string]bool) []*Member {
	owner := t
	if t.Kind() == reflect.Struct {
		owner = reflect.PointerTo(t)
	} else if t.Kind() == reflect.Pointer && base.Kind() == reflect.Struct {
		owner = reflect.PointerTo(base)
	}

	var members []*Member
	for i := 0; i < owner.NumMethod(); i++ {
		method := owner.Method(i)
		if !method.IsExported() || seen[method.Name] || skippedMethods[method.Name] || strings.HasPrefix(method.Name, "Set") {
			continue
		}
		if numIn(owner, method) != 0 || method.Type.NumOut() != 1 {
			continue
		}
		out := method.Type.Out(0)
		m := &Member{
			Name:      method.Name,
			PortName:  method.Name,
			Type:      out,
			NoFlatten: opts.suppressed(out),
			getter:    method.Name,
		}
		if setter, ok := owner.MethodByName("Set" + method.Name); ok && numIn(owner, setter) == 1 {
			param := setter.Type.In(setter.Type.NumIn() - 1)
			if out.AssignableTo(param) {
				m.setter = setter.Name
			}
		}
		m.Shape = shapeFor(m)
		members = append(members, m)
	}
	return members
}

// Name returns a printable name for t.
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
