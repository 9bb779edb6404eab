package typeinfo

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/aretw0/prism/pkg/domain"
)

type source int

const (
	sourceNone source = iota
	sourceMap
	sourceSlice
	sourcePairs
	sourceSeq
	sourceSeq2
)

// Shape is the classification of a declared type.
type Shape struct {
	Kind domain.Kind
	Key  reflect.Type // Dictionary only
	Elem reflect.Type // Enumerable element or Dictionary value

	// Degraded is set when the type looked collection-shaped but its element
	// types could not be determined. Such types are projected as Scalar.
	Degraded bool

	source source
}

// Classify returns the shape of t.
func Classify(t reflect.Type) Shape {
	if t == nil {
		return Shape{}
	}

	switch t.Kind() {
	case reflect.String:
		return Shape{}
	case reflect.Map:
		return Shape{Kind: domain.KindDictionary, Key: t.Key(), Elem: t.Elem(), source: sourceMap}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Shape{}
		}
		return Shape{Kind: domain.KindEnumerable, Elem: t.Elem(), source: sourceSlice}
	}

	if s, found := pairsShape(t); found {
		return s
	}
	if s, found := seqShape(t); found {
		return s
	}
	return Shape{}
}

// Scalar reports whether the shape maps to a single plain port.
func (s Shape) Scalar() bool { return s.Kind == domain.KindScalar }

// numIn returns the parameter count of a method, excluding the receiver that
// reflect includes for methods of non-interface types.
func numIn(owner reflect.Type, m reflect.Method) int {
	if owner.Kind() == reflect.Interface {
		return m.Type.NumIn()
	}
	return m.Type.NumIn() - 1
}

func pairsShape(t reflect.Type) (Shape, bool) {
	m, ok := t.MethodByName("Oldest")
	if !ok || numIn(t, m) != 0 || m.Type.NumOut() != 1 {
		return Shape{}, false
	}
	p := m.Type.Out(0)
	if p.Kind() != reflect.Pointer || p.Elem().Kind() != reflect.Struct {
		return Shape{Degraded: true}, true
	}
	key, okKey := p.Elem().FieldByName("Key")
	val, okVal := p.Elem().FieldByName("Value")
	next, okNext := p.MethodByName("Next")
	if !okKey || !okVal || !okNext || next.Type.NumOut() != 1 || next.Type.Out(0) != p {
		return Shape{Degraded: true}, true
	}
	return Shape{Kind: domain.KindDictionary, Key: key.Type, Elem: val.Type, source: sourcePairs}, true
}

func seqShape(t reflect.Type) (Shape, bool) {
	m, ok := t.MethodByName("All")
	if !ok || numIn(t, m) != 0 || m.Type.NumOut() != 1 {
		return Shape{}, false
	}
	seq := m.Type.Out(0)
	if seq.Kind() != reflect.Func {
		return Shape{}, false
	}
	if seq.NumIn() != 1 || seq.NumOut() != 0 {
		return Shape{Degraded: true}, true
	}
	yield := seq.In(0)
	if yield.Kind() != reflect.Func || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return Shape{Degraded: true}, true
	}
	switch yield.NumIn() {
	case 1:
		return Shape{Kind: domain.KindEnumerable, Elem: yield.In(0), source: sourceSeq}, true
	case 2:
		return Shape{Kind: domain.KindDictionary, Key: yield.In(0), Elem: yield.In(1), source: sourceSeq2}, true
	default:
		return Shape{Degraded: true}, true
	}
}

// Elements returns the elements of an Enumerable value in iteration order.
// A nil collection yields no elements.
func (s Shape) Elements(v reflect.Value) []reflect.Value {
	if s.Kind != domain.KindEnumerable || isNil(v) {
		return nil
	}
	v = unwrap(v)
	switch s.source {
	case sourceSlice:
		out := make([]reflect.Value, v.Len())
		for i := range out {
			out[i] = v.Index(i)
		}
		return out
	case sourceSeq:
		var out []reflect.Value
		iterate(v, func(args []reflect.Value) {
			out = append(out, args[0])
		})
		return out
	}
	return nil
}

// Entries returns the keys and values of a Dictionary value.
// Builtin maps with ordered key types are returned in ascending key order; every
// other source is returned in its own iteration order. A nil dictionary yields nothing.
func (s Shape) Entries(v reflect.Value) (keys, vals []reflect.Value) {
	if s.Kind != domain.KindDictionary || isNil(v) {
		return nil, nil
	}
	v = unwrap(v)
	switch s.source {
	case sourceMap:
		keys = v.MapKeys()
		sortKeys(keys)
		vals = make([]reflect.Value, len(keys))
		for i, k := range keys {
			vals[i] = v.MapIndex(k)
		}
	case sourcePairs:
		oldest := v.MethodByName("Oldest")
		if !oldest.IsValid() {
			return nil, nil
		}
		for p := oldest.Call(nil)[0]; !p.IsNil(); p = p.MethodByName("Next").Call(nil)[0] {
			keys = append(keys, p.Elem().FieldByName("Key"))
			vals = append(vals, p.Elem().FieldByName("Value"))
		}
	case sourceSeq2:
		iterate(v, func(args []reflect.Value) {
			keys = append(keys, args[0])
			vals = append(vals, args[1])
		})
	}
	return keys, vals
}

func iterate(v reflect.Value, each func(args []reflect.Value)) {
	all := v.MethodByName("All")
	if !all.IsValid() {
		return
	}
	seq := all.Call(nil)[0]
	if seq.IsNil() {
		return
	}
	yieldType := seq.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		copied := make([]reflect.Value, len(args))
		for i, a := range args {
			// Values handed to yield may be reused by the iterator.
			c := reflect.New(a.Type()).Elem()
			c.Set(a)
			copied[i] = c
		}
		each(copied)
		return []reflect.Value{reflect.ValueOf(true)}
	})
	seq.Call([]reflect.Value{yield})
}

func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	switch keys[0].Kind() {
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) })
	}
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Interface:
		return v.IsNil() || isNil(v.Elem())
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// IsNil reports whether v is invalid or a nil reference, looking through interfaces.
func IsNil(v reflect.Value) bool { return isNil(v) }

func unwrap(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// IsPointerShaped reports whether t is a raw address type that prism refuses to project.
func IsPointerShaped(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.UnsafePointer, reflect.Uintptr:
		return true
	default:
		return false
	}
}
