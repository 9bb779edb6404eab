package rebind

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Aliases maps short, case-insensitive names to types. Safe for concurrent use.
type Aliases struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewAliases returns an empty table.
func NewAliases() *Aliases {
	return &Aliases{types: make(map[string]reflect.Type)}
}

// DefaultAliases returns the table of common host type names.
func DefaultAliases() *Aliases {
	a := NewAliases()
	a.Set("value", reflect.TypeFor[float64]())
	a.Set("double", reflect.TypeFor[float64]())
	a.Set("float", reflect.TypeFor[float32]())
	a.Set("int", reflect.TypeFor[int]())
	a.Set("string", reflect.TypeFor[string]())
	a.Set("bool", reflect.TypeFor[bool]())
	a.Set("vector2d", reflect.TypeFor[domain.Vector2D]())
	a.Set("vector3d", reflect.TypeFor[domain.Vector3D]())
	a.Set("vector4d", reflect.TypeFor[domain.Vector4D]())
	a.Set("duration", reflect.TypeFor[time.Duration]())
	a.Set("time", reflect.TypeFor[time.Time]())
	return a
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set registers alias for t, replacing any previous mapping.
func (a *Aliases) Set(alias string, t reflect.Type) {
	if t == nil || normalize(alias) == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types[normalize(alias)] = t
}

// Lookup resolves alias, ignoring case and surrounding space.
func (a *Aliases) Lookup(alias string) (reflect.Type, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.types[normalize(alias)]
	return t, ok
}

// Names returns every alias, sorted.
func (a *Aliases) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.types))
	for name := range a.types {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Merge copies every mapping of names into a. Type names that do not resolve in
// reg are reported as one joined error; the others are still registered.
func (a *Aliases) Merge(names map[string]string, reg *typeinfo.Names) error {
	var errs []error
	aliases := make([]string, 0, len(names))
	for alias := range names {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	for _, alias := range aliases {
		typeName := names[alias]
		t, ok := a.Lookup(typeName)
		if !ok {
			t, ok = reg.Lookup(typeName)
		}
		if !ok {
			err := zerr.Wrap(domain.ErrTypeNotResolved, fmt.Sprintf("alias %q", alias))
			errs = append(errs, zerr.With(err, "type", typeName))
			continue
		}
		a.Set(alias, t)
	}
	return errors.Join(errs...)
}

// LoadYAML reads a mapping of alias to type name, for example
//
//	speed: double
//	pose: domain.Vector3D
//
// Type names are resolved against the table itself first, then reg.
func (a *Aliases) LoadYAML(r io.Reader, reg *typeinfo.Names) error {
	var names map[string]string
	if err := yaml.NewDecoder(r).Decode(&names); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return zerr.Wrap(err, "failed to decode alias table")
	}
	return a.Merge(names, reg)
}
