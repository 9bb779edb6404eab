package cache

import (
	"reflect"
)

// Identity is a comparable key standing for one object.
type Identity struct {
	typ  reflect.Type
	ref  any     // pointer or comparable value
	addr uintptr // reference types that are not comparable
	n    int
}

// IdentityOf returns the identity of v.
// Pointers and channels are keyed by the reference itself, which keeps the object
// alive until its entry is evicted. Maps, slices and funcs are keyed by address
// (and length for slices). Other values are keyed by value when comparable.
// ok is false for nil references and non-comparable values; those are never cached.
func IdentityOf(v any) (Identity, bool) {
	if v == nil {
		return Identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), ref: v}, true
	case reflect.Map, reflect.Func:
		if rv.IsNil() {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), addr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), addr: rv.Pointer(), n: rv.Len()}, true
	default:
		if !rv.Comparable() {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), ref: v}, true
	}
}

// Type returns the dynamic type of the identified object.
func (id Identity) Type() reflect.Type { return id.typ }
