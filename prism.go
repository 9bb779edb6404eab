package prism

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/aretw0/prism/internal/runtime"
	"github.com/aretw0/prism/pkg/adapters/memory"
	"github.com/aretw0/prism/pkg/cache"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"github.com/aretw0/prism/pkg/projection"
	"github.com/aretw0/prism/pkg/rebind"
	"github.com/aretw0/prism/pkg/registry"
	"github.com/aretw0/prism/pkg/typeinfo"
)

// Host is the high-level entry point: it owns the channel factory, the frame clock,
// the shared object cache and the ordered list of nodes evaluated on every Tick.
type Host struct {
	factory     ports.ChannelFactory
	clock       *cache.FrameClock
	cache       *cache.Cache
	names       *typeinfo.Names
	evaluator   *runtime.Evaluator
	cacheWindow int
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Host.
type Option func(*Host)

// WithLifecycleHooks registers observability hooks on every component the host creates.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Host) {
		h.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithChannelFactory replaces the in-memory channel factory.
// When the factory implements ports.Settler, change flags are settled after every cycle.
func WithChannelFactory(f ports.ChannelFactory) Option {
	return func(h *Host) {
		h.factory = f
	}
}

// WithCacheWindow sets how many frames projected values stay reusable.
func WithCacheWindow(frames int) Option {
	return func(h *Host) {
		h.cacheWindow = frames
	}
}

// WithTypeNames sets the table used to resolve type names for rebinding.
func WithTypeNames(names *typeinfo.Names) Option {
	return func(h *Host) {
		h.names = names
	}
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{cacheWindow: cache.DefaultWindow}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if h.factory == nil {
		h.factory = memory.NewFactory()
	}
	if h.names == nil {
		h.names = typeinfo.NewNames()
	}
	h.clock = cache.NewFrameClock()
	h.cache = cache.New(h.clock, cache.WithWindow(h.cacheWindow))

	evalOpts := []runtime.EvaluatorOption{
		runtime.WithLogger(h.logger),
		runtime.WithLifecycleHooks(h.hooks),
	}
	if s, ok := h.factory.(ports.Settler); ok {
		evalOpts = append(evalOpts, runtime.WithSettler(s))
	}
	h.evaluator = runtime.NewEvaluator(h.clock, h.cache, evalOpts...)
	return h
}

// Clock returns the frame clock.
func (h *Host) Clock() *cache.FrameClock { return h.clock }

// Cache returns the shared object cache.
func (h *Host) Cache() *cache.Cache { return h.cache }

// Factory returns the channel factory.
func (h *Host) Factory() ports.ChannelFactory { return h.factory }

// Names returns the type name table.
func (h *Host) Names() *typeinfo.Names { return h.names }

// Nodes returns the node names in evaluation order.
func (h *Host) Nodes() []string { return h.evaluator.Nodes() }

// NewRegistry creates a port registry for a node.
func (h *Host) NewRegistry(node string) *registry.Registry {
	return registry.New(h.factory,
		registry.WithNode(node),
		registry.WithLogger(h.logger),
		registry.WithLifecycleHooks(h.hooks),
	)
}

// Add appends a node to the evaluation order.
func (h *Host) Add(name string, n ports.Node) {
	h.evaluator.Add(name, n)
}

func (h *Host) projectionOptions(node string, opts []projection.Option) []projection.Option {
	base := []projection.Option{
		projection.WithLogger(h.logger.With("node", node)),
		projection.WithLifecycleHooks(h.hooks),
	}
	return append(base, opts...)
}

// Split creates a Split node for typ on its own registry and appends it to the host.
// A nil typ leaves the Split unbound until it is retargeted.
func (h *Host) Split(node string, typ reflect.Type, opts ...projection.Option) (*projection.Split, error) {
	s := projection.NewSplit(typ, h.NewRegistry(node), h.cache, h.projectionOptions(node, opts)...)
	if typ != nil {
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize split %q: %w", node, err)
		}
	}
	h.Add(node, s)
	return s, nil
}

// Join creates a Join node for typ on its own registry and appends it to the host.
func (h *Host) Join(node string, typ reflect.Type, opts ...projection.Option) (*projection.Join, error) {
	j := projection.NewJoin(typ, h.NewRegistry(node), h.projectionOptions(node, opts)...)
	if typ != nil {
		if err := j.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize join %q: %w", node, err)
		}
	}
	h.Add(node, j)
	return j, nil
}

// Rebind creates a rebinding group on reg and appends it to the host. Add the group
// before the nodes that depend on it so that they see the new type in the same cycle.
func (h *Host) Rebind(group string, reg *registry.Registry, opts ...rebind.Option) (*rebind.Group, error) {
	base := []rebind.Option{
		rebind.WithNames(h.names),
		rebind.WithLogger(h.logger.With("node", reg.Node())),
		rebind.WithLifecycleHooks(h.hooks),
	}
	g := rebind.New(group, reg, append(base, opts...)...)
	if err := g.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize group %q: %w", group, err)
	}
	h.Add(reg.Node()+"/"+group, g)
	return g, nil
}

// Link copies the output port from of one registry into the input port to of
// another on every cycle, at the current position in the evaluation order.
func (h *Host) Link(from *registry.Registry, output string, to *registry.Registry, input string) {
	h.Add(fmt.Sprintf("%s.%s->%s.%s", from.Node(), output, to.Node(), input), &runtime.Link{
		From: runtime.Endpoint{Registry: from, Scope: domain.ScopeOutput, Name: output},
		To:   runtime.Endpoint{Registry: to, Scope: domain.ScopeInput, Name: input},
	})
}

// Tick runs one host cycle: advance the clock, evaluate every node in order, evict
// stale cache entries and settle change flags. It returns the cycle's frame.
func (h *Host) Tick(ctx context.Context) (int64, error) {
	return h.evaluator.Tick(ctx)
}
