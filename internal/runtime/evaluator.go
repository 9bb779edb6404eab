package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/prism/pkg/cache"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"go.trai.ch/zerr"
)

type entry struct {
	name string
	node ports.Node
}

// Evaluator runs the host cycle: advance the frame clock, evaluate every node in
// order, evict stale cache entries, then settle channel change flags.
// It is not safe for concurrent use.
type Evaluator struct {
	clock   *cache.FrameClock
	cache   *cache.Cache
	settler ports.Settler
	nodes   []entry
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers the eviction hook.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EvaluatorOption {
	return func(e *Evaluator) {
		e.hooks = hooks
	}
}

// WithSettler sets what clears channel change flags at the end of each cycle.
func WithSettler(s ports.Settler) EvaluatorOption {
	return func(e *Evaluator) {
		e.settler = s
	}
}

// NewEvaluator creates an evaluator over the shared clock and cache.
func NewEvaluator(clock *cache.FrameClock, c *cache.Cache, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{clock: clock, cache: c}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Add appends a node. Nodes are evaluated in the order they were added.
func (e *Evaluator) Add(name string, n ports.Node) {
	e.nodes = append(e.nodes, entry{name: name, node: n})
}

// Nodes returns the node names in evaluation order.
func (e *Evaluator) Nodes() []string {
	names := make([]string, len(e.nodes))
	for i, n := range e.nodes {
		names[i] = n.name
	}
	return names
}

// Tick runs one cycle and returns its frame.
// The first node error aborts the cycle; eviction and settling are then skipped so
// the next cycle sees the same pending changes.
func (e *Evaluator) Tick(ctx context.Context) (int64, error) {
	frame := e.clock.Advance()
	for _, n := range e.nodes {
		if err := ctx.Err(); err != nil {
			return frame, err
		}
		if err := n.node.Evaluate(ctx); err != nil {
			wrapped := zerr.With(zerr.Wrap(err, "node evaluation failed"), "node", n.name)
			return frame, zerr.With(wrapped, "frame", frame)
		}
	}

	if e.cache != nil {
		evicted := e.cache.EvictStale()
		if evicted > 0 {
			e.logger.Debug("cache entries evicted", "frame", frame, "evicted", evicted, "remaining", e.cache.Len())
		}
		if e.hooks.OnCacheEvicted != nil {
			e.hooks.OnCacheEvicted(&domain.CacheEvent{
				Type:      domain.EventCacheEvicted,
				Frame:     frame,
				Evicted:   evicted,
				Remaining: e.cache.Len(),
			})
		}
	}
	if e.settler != nil {
		e.settler.Settle()
	}
	return frame, nil
}
