// Package inspect runs a Split over a synthesized document and reports its port
// layout and projected values. It backs both the CLI and the HTTP inspector.
package inspect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/aretw0/prism"
	"github.com/aretw0/prism/internal/config"
	"github.com/aretw0/prism/internal/dynamic"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"github.com/aretw0/prism/pkg/projection"
	"github.com/aretw0/prism/pkg/typeinfo"
	"go.trai.ch/zerr"
)

// DocumentType is shown in place of the synthesized type's Go literal.
const DocumentType = "document"

const node = "inspect"

// Member is one projected member.
type Member struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Type  string   `json:"type"`
	Ports []string `json:"ports"`
}

// Port is one declared port and, after a cycle, its slices.
type Port struct {
	Name       string `json:"name"`
	Scope      string `json:"scope"`
	Type       string `json:"type"`
	BinSized   bool   `json:"bin_sized"`
	Visibility string `json:"visibility"`
	Values     []any  `json:"values,omitempty"`
}

// Report describes one projection.
type Report struct {
	Fingerprint string   `json:"fingerprint"`
	Slices      int      `json:"slices"`
	Frame       int64    `json:"frame,omitempty"`
	Members     []Member `json:"members"`
	Ports       []Port   `json:"ports"`
}

// Inspector builds reports under one profile.
type Inspector struct {
	profile config.Profile
	names   *typeinfo.Names
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLifecycleHooks forwards hooks to every host the inspector creates.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Inspector) {
		i.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// New creates an Inspector.
func New(profile config.Profile, opts ...Option) *Inspector {
	i := &Inspector{
		profile: profile,
		names:   typeinfo.NewNames(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Layout declares the Split of doc's type and reports its ports without running a cycle.
func (i *Inspector) Layout(doc *dynamic.Document) (Report, error) {
	_, split, err := i.split(doc)
	if err != nil {
		return Report{}, err
	}
	return i.report(doc, split, false), nil
}

// Split projects every record of doc in one host cycle.
func (i *Inspector) Split(ctx context.Context, doc *dynamic.Document) (Report, error) {
	host, split, err := i.split(doc)
	if err != nil {
		return Report{}, err
	}
	values, err := doc.Values()
	if err != nil {
		return Report{}, err
	}

	in := split.Registry().Channel(domain.ScopeInput, projection.PortInput)
	in.SetLen(len(values))
	for j, v := range values {
		if err := in.Set(j, v); err != nil {
			return Report{}, zerr.With(err, "record", j)
		}
	}

	frame, err := host.Tick(ctx)
	if err != nil {
		return Report{}, err
	}
	r := i.report(doc, split, true)
	r.Frame = frame
	r.Slices = len(values)
	return r, nil
}

func (i *Inspector) split(doc *dynamic.Document) (*prism.Host, *projection.Split, error) {
	opts, err := i.profile.SplitOptions(i.names)
	if err != nil {
		return nil, nil, err
	}
	host := prism.New(append(i.profile.HostOptions(),
		prism.WithLogger(i.logger),
		prism.WithLifecycleHooks(i.hooks),
		prism.WithTypeNames(i.names),
	)...)
	split, err := host.Split(node, doc.Type, opts...)
	if err != nil {
		return nil, nil, err
	}
	return host, split, nil
}

func (i *Inspector) report(doc *dynamic.Document, split *projection.Split, values bool) Report {
	layout := split.Layout()
	r := Report{Fingerprint: strconv.FormatUint(layout.Fingerprint, 16)}

	for _, b := range layout.Bindings {
		r.Members = append(r.Members, Member{
			Name:  b.Member.PortName,
			Kind:  b.Kind.String(),
			Type:  typeName(doc, b.Member.Type),
			Ports: b.Ports,
		})
	}

	for _, scope := range domain.Scopes {
		for _, p := range split.Registry().Ports(scope) {
			port := Port{
				Name:       p.Name,
				Scope:      scope.String(),
				Type:       typeName(doc, p.Type),
				BinSized:   p.BinSized,
				Visibility: p.Attrs.Visibility.String(),
			}
			if values && scope == domain.ScopeOutput {
				port.Values = collect(doc, p.Name, p.Channel())
			}
			r.Ports = append(r.Ports, port)
		}
	}
	return r
}

func collect(doc *dynamic.Document, name string, ch ports.Channel) []any {
	out := make([]any, ch.Len())
	for j := range out {
		v := ch.Get(j)
		if name == projection.PortTopLevelType && v == doc.Type.String() {
			v = DocumentType
		}
		out[j] = v
	}
	return out
}

func typeName(doc *dynamic.Document, t interface{ String() string }) string {
	if t == nil {
		return "<nil>"
	}
	if s := t.String(); s != doc.Type.String() && s != doc.Type.Elem().String() {
		return s
	}
	return DocumentType
}

// Sprint renders a slice value for plain-text output.
func Sprint(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
