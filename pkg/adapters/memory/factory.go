package memory

import (
	"sync"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"go.trai.ch/zerr"
)

// Factory implements ports.ChannelFactory in memory.
// Safe for concurrent use.
type Factory struct {
	mu   sync.Mutex
	live map[*Channel]struct{}
}

// NewFactory creates a new in-memory channel factory.
func NewFactory() *Factory {
	return &Factory{
		live: make(map[*Channel]struct{}),
	}
}

// Allocate creates a typed channel for spec.
// Input and config channels start with one slice holding the default (or zero) value.
func (f *Factory) Allocate(spec ports.ChannelSpec) (ports.Channel, error) {
	if spec.Type == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrChannelAllocation, "missing element type"), "port", spec.Name)
	}

	ch := newChannel(spec, f)
	if spec.Scope != domain.ScopeOutput {
		ch.seed(spec.Attrs.Default)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[ch] = struct{}{}
	return ch, nil
}

// Settle clears the change flag of every live channel.
func (f *Factory) Settle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.live {
		ch.changed = false
	}
}

// Live returns the number of channels allocated and not yet disposed.
func (f *Factory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *Factory) release(ch *Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, ch)
}
