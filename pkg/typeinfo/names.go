package typeinfo

import (
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/prism/pkg/domain"
)

// Entry is one registered type name.
type Entry struct {
	Name string
	Type reflect.Type
}

// Names maps type names to runtime types.
// Go cannot resolve arbitrary type names at run time, so every type that should be
// reachable by name must be registered. Safe for concurrent use.
type Names struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewNames creates a table preloaded with the builtin scalar types, time types and host vectors.
func NewNames() *Names {
	n := &Names{types: make(map[string]reflect.Type)}
	for _, t := range []reflect.Type{
		reflect.TypeFor[bool](),
		reflect.TypeFor[string](),
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
		reflect.TypeFor[[]byte](),
		reflect.TypeFor[time.Duration](),
		reflect.TypeFor[time.Time](),
		reflect.TypeFor[domain.Vector2D](),
		reflect.TypeFor[domain.Vector3D](),
		reflect.TypeFor[domain.Vector4D](),
	} {
		n.Register(t)
	}
	n.Register(reflect.TypeFor[any](), "any")
	return n
}

// Register adds t under its qualified names (e.g. "domain.Vector3D" and
// "github.com/aretw0/prism/pkg/domain.Vector3D") plus any extra aliases.
// A later registration of the same name wins.
func (n *Names) Register(t reflect.Type, aliases ...string) {
	if t == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types[t.String()] = t
	if t.Name() != "" && t.PkgPath() != "" {
		n.types[t.PkgPath()+"."+t.Name()] = t
	}
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			n.types[a] = t
		}
	}
}

// RegisterType registers T on n.
func RegisterType[T any](n *Names, aliases ...string) {
	n.Register(reflect.TypeFor[T](), aliases...)
}

// Lookup returns the type registered under name.
func (n *Names) Lookup(name string) (reflect.Type, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	t, ok := n.types[strings.TrimSpace(name)]
	return t, ok
}

// Entries returns every registered name sorted by name.
func (n *Names) Entries() []Entry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Entry, 0, len(n.types))
	for name, t := range n.types {
		out = append(out, Entry{Name: name, Type: t})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Interfaces returns the distinct registered interface types sorted by type string.
func (n *Names) Interfaces() []reflect.Type {
	n.mu.RLock()
	defer n.mu.RUnlock()
	seen := make(map[reflect.Type]bool)
	var out []reflect.Type
	for _, t := range n.types {
		if t.Kind() == reflect.Interface && t.NumMethod() > 0 && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b reflect.Type) int { return strings.Compare(a.String(), b.String()) })
	return out
}

// Len returns the number of registered names.
func (n *Names) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.types)
}
