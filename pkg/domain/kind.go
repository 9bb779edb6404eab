package domain

// Kind is the shape a member is projected with.
type Kind int

const (
	// KindScalar members map to a single plain port.
	KindScalar Kind = iota
	// KindEnumerable members map to one bin-sized port holding their elements.
	KindEnumerable
	// KindDictionary members map to two bin-sized ports holding keys and values.
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindEnumerable:
		return "enumerable"
	case KindDictionary:
		return "dictionary"
	default:
		return "scalar"
	}
}

// PortCount reports how many ports a member of this kind occupies.
func (k Kind) PortCount() int {
	if k == KindDictionary {
		return 2
	}
	return 1
}
