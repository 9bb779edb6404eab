package projection

import (
	"reflect"
	"strconv"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/cespare/xxhash/v2"
)

// KeysPort returns the name of the keys port of a dictionary member.
func KeysPort(name string) string { return name + " Keys" }

// ValuesPort returns the name of the values port of a dictionary member.
func ValuesPort(name string) string { return name + " Values" }

// Binding ties one member to the ports it is projected on.
type Binding struct {
	Member *typeinfo.Member
	Kind   domain.Kind
	Ports  []string // one name, or keys and values for dictionaries

	// Native types of the member's scalar value, element, or dictionary key and value.
	Key  reflect.Type
	Elem reflect.Type

	// Host types as seen through the transform.
	HostKey  reflect.Type
	HostElem reflect.Type

	slot string
}

// Layout is the ordered set of bindings derived from one type.
type Layout struct {
	Type     reflect.Type
	Bindings []Binding

	// Fingerprint changes whenever the set of ports or their types change.
	Fingerprint uint64
}

// Binding returns the binding of the named member.
func (l Layout) Binding(member string) (Binding, bool) {
	for _, b := range l.Bindings {
		if b.Member.Name == member {
			return b, true
		}
	}
	return Binding{}, false
}

// PortNames returns every member port name in binding order.
func (l Layout) PortNames() []string {
	var names []string
	for _, b := range l.Bindings {
		names = append(names, b.Ports...)
	}
	return names
}

type layoutRequest struct {
	typ       reflect.Type
	dir       typeinfo.Direction
	policy    typeinfo.Policy
	opts      typeinfo.Options
	transform ValueTransform
	reserved  []string
}

// skipped reports a member dropped from the layout and why.
type skipped struct {
	member string
	reason string
}

func buildLayout(req layoutRequest) (Layout, []skipped) {
	layout := Layout{Type: req.typ}
	taken := make(map[string]bool, len(req.reserved))
	for _, name := range req.reserved {
		taken[name] = true
	}

	var dropped []skipped
	for _, m := range req.policy.Filter(typeinfo.Members(req.typ, req.opts), req.dir) {
		b := bind(m, req.transform)
		if clash := firstTaken(taken, b.Ports); clash != "" {
			dropped = append(dropped, skipped{member: m.Name, reason: "port name in use: " + clash})
			continue
		}
		for _, p := range b.Ports {
			taken[p] = true
		}
		layout.Bindings = append(layout.Bindings, b)
	}
	layout.Fingerprint = fingerprint(layout)
	return layout, dropped
}

func bind(m *typeinfo.Member, transform ValueTransform) Binding {
	b := Binding{Member: m, Kind: m.Shape.Kind}
	switch b.Kind {
	case domain.KindDictionary:
		b.Ports = []string{KeysPort(m.PortName), ValuesPort(m.PortName)}
		b.Key, b.Elem = m.Shape.Key, m.Shape.Elem
		b.HostKey = transform.HostType(b.Key)
	case domain.KindEnumerable:
		b.Ports = []string{m.PortName}
		b.Elem = m.Shape.Elem
	default:
		b.Ports = []string{m.PortName}
		b.Elem = m.Type
	}
	b.HostElem = transform.HostType(b.Elem)
	b.slot = m.Name + "|" + typeinfo.Name(b.HostKey) + "|" + typeinfo.Name(b.HostElem)
	return b
}

func firstTaken(taken map[string]bool, names []string) string {
	for _, n := range names {
		if taken[n] {
			return n
		}
	}
	return ""
}

func fingerprint(l Layout) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(typeinfo.Name(l.Type))
	for _, b := range l.Bindings {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(b.Member.Name)
		_, _ = d.WriteString(strconv.Itoa(int(b.Kind)))
		for _, p := range b.Ports {
			_, _ = d.WriteString(p)
		}
		_, _ = d.WriteString(typeinfo.Name(b.HostKey))
		_, _ = d.WriteString(typeinfo.Name(b.HostElem))
	}
	return d.Sum64()
}

// Plan computes the layout Split (typeinfo.Reading) or Join (typeinfo.Writing)
// would declare for typ, without allocating any ports.
func Plan(typ reflect.Type, dir typeinfo.Direction, opts ...Option) Layout {
	s := newSettings(opts)
	reserved := splitReserved
	if dir == typeinfo.Writing {
		reserved = joinReserved
	}
	layout, _ := buildLayout(layoutRequest{
		typ:       typ,
		dir:       dir,
		policy:    s.policy,
		opts:      s.typeOpts,
		transform: s.transform,
		reserved:  reserved,
	})
	return layout
}
