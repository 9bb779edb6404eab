package projection

import "reflect"

// EnumerableHooks clear and fill an enumerable member while a Join builds an instance.
// Each hook reports false when it cannot handle the collection; the member is then left as is.
type EnumerableHooks struct {
	Clear func(coll reflect.Value) bool
	Add   func(coll reflect.Value, index int, elem reflect.Value) bool
}

// DefaultEnumerableHooks handle slices, arrays and types with a Clear method and an
// Add, Append or Push method taking one element.
func DefaultEnumerableHooks() EnumerableHooks {
	return EnumerableHooks{Clear: clearCollection, Add: addElement}
}

func clearCollection(coll reflect.Value) bool {
	switch coll.Kind() {
	case reflect.Slice:
		if !coll.CanSet() {
			return false
		}
		coll.Set(reflect.MakeSlice(coll.Type(), 0, 0))
		return true
	case reflect.Array:
		if !coll.CanSet() {
			return false
		}
		coll.SetZero()
		return true
	case reflect.Pointer:
		if coll.IsNil() {
			if !coll.CanSet() {
				return false
			}
			coll.Set(reflect.New(coll.Type().Elem()))
		}
	}
	fn := callable(coll, "Clear", 0)
	if !fn.IsValid() {
		return false
	}
	fn.Call(nil)
	return true
}

func addElement(coll reflect.Value, index int, elem reflect.Value) bool {
	switch coll.Kind() {
	case reflect.Slice:
		if !elem.Type().AssignableTo(coll.Type().Elem()) {
			return false
		}
		coll.Set(reflect.Append(coll, elem))
		return true
	case reflect.Array:
		if index >= coll.Len() || !elem.Type().AssignableTo(coll.Type().Elem()) {
			return false
		}
		coll.Index(index).Set(elem)
		return true
	}
	for _, name := range []string{"Add", "Append", "Push"} {
		m := callable(coll, name, 1)
		if m.IsValid() && elem.Type().AssignableTo(m.Type().In(0)) {
			m.Call([]reflect.Value{elem})
			return true
		}
	}
	return false
}

func callable(v reflect.Value, name string, in int) reflect.Value {
	m := v.MethodByName(name)
	if !m.IsValid() && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() || m.Type().NumIn() != in {
		return reflect.Value{}
	}
	return m
}
