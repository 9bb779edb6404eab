package typeinfo

import "slices"

// Direction selects which accessor a member must provide.
type Direction int

const (
	// Reading requires a read accessor (Split).
	Reading Direction = iota
	// Writing requires a write accessor (Join).
	Writing
)

// Policy decides which members are projected.
// A non-empty Whitelist admits only the listed names; otherwise Blacklist excludes names.
// Names match either the Go identifier or the port name of a member.
type Policy struct {
	Whitelist []string
	Blacklist []string
}

// Allow reports whether m is eligible for projection in direction dir.
func (p Policy) Allow(m *Member, dir Direction) bool {
	if m == nil {
		return false
	}
	if dir == Reading && !m.CanRead() {
		return false
	}
	if dir == Writing && !m.CanWrite() {
		return false
	}
	if m.PointerShaped() || m.Ignored {
		return false
	}
	if len(p.Whitelist) > 0 {
		return listed(p.Whitelist, m)
	}
	return !listed(p.Blacklist, m)
}

// Filter returns the members of ms allowed in direction dir, preserving order.
func (p Policy) Filter(ms []*Member, dir Direction) []*Member {
	out := make([]*Member, 0, len(ms))
	for _, m := range ms {
		if p.Allow(m, dir) {
			out = append(out, m)
		}
	}
	return out
}

func listed(names []string, m *Member) bool {
	return slices.Contains(names, m.Name) || slices.Contains(names, m.PortName)
}
