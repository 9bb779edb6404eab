package domain

// Scope identifies the port group a port belongs to.
type Scope int

const (
	ScopeConfig Scope = iota
	ScopeInput
	ScopeOutput
)

// Scopes lists every scope in declaration order.
var Scopes = []Scope{ScopeConfig, ScopeInput, ScopeOutput}

func (s Scope) String() string {
	switch s {
	case ScopeConfig:
		return "config"
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Visibility controls how the host presents a port.
type Visibility int

const (
	VisibilityVisible Visibility = iota
	VisibilityHidden
	VisibilityInspectorOnly
)

func (v Visibility) String() string {
	switch v {
	case VisibilityHidden:
		return "hidden"
	case VisibilityInspectorOnly:
		return "inspector"
	default:
		return "visible"
	}
}

// PortAttrs carries the presentation metadata and defaults of a port.
// It is preserved when the port is retyped.
type PortAttrs struct {
	Order      int
	Visibility Visibility
	IsBang     bool
	IsToggle   bool

	// Default seeds the first slice of a freshly allocated input or config channel.
	// It is ignored when it does not fit the channel's slice type.
	Default any

	// Primitive decomposition of Default, used by hosts that only render numbers.
	DefaultValues []float64
	DefaultString string
	DefaultBool   bool
}
