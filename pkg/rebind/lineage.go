package rebind

import (
	"reflect"

	"github.com/aretw0/prism/pkg/typeinfo"
)

// Lineage lists the types a value can be learned as, most specific first: its
// runtime type, the pointed-to type for pointers, the embedded struct types
// depth-first, then every interface registered in names that the value implements.
func Lineage(v any, names *typeinfo.Names) []reflect.Type {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)
	add := func(t reflect.Type) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	add(t)
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
		add(base)
	}
	embedded(base, add)

	if names != nil {
		for _, it := range names.Interfaces() {
			if t.Implements(it) {
				add(it)
			}
		}
	}
	return out
}

func embedded(t reflect.Type, add func(reflect.Type)) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		add(f.Type)
		inner := f.Type
		if inner.Kind() == reflect.Pointer {
			inner = inner.Elem()
		}
		embedded(inner, add)
	}
}

// Learn returns the lineage entry at level, clamped to the available range.
// Level 0 is the runtime type of v.
func Learn(v any, level int, names *typeinfo.Names) (reflect.Type, bool) {
	lineage := Lineage(v, names)
	if len(lineage) == 0 {
		return nil, false
	}
	return lineage[max(0, min(level, len(lineage)-1))], true
}
