package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
)

// Entry is one journaled lifecycle event.
type Entry struct {
	Time   time.Time        `json:"time"`
	Type   domain.EventType `json:"type"`
	Node   string           `json:"node,omitempty"`
	Detail string           `json:"detail"`
}

// Journal keeps the most recent lifecycle events in a bounded ring.
// Member reads and cache hits are not journaled. Safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	now     func() time.Time
}

// NewJournal creates a journal keeping up to size entries.
func NewJournal(size int) *Journal {
	return &Journal{entries: make([]Entry, max(size, 1)), now: time.Now}
}

func (j *Journal) record(typ domain.EventType, node, detail string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[j.next] = Entry{Time: j.now(), Type: typ, Node: node, Detail: detail}
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
}

// Snapshot returns the journaled events, oldest first.
func (j *Journal) Snapshot() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.full {
		return append([]Entry(nil), j.entries[:j.next]...)
	}
	out := make([]Entry, 0, len(j.entries))
	out = append(out, j.entries[j.next:]...)
	return append(out, j.entries[:j.next]...)
}

// Hooks returns lifecycle hooks feeding the journal.
func (j *Journal) Hooks() domain.LifecycleHooks {
	port := func(e *domain.PortEvent) {
		j.record(e.Type, e.Node, fmt.Sprintf("%s %q %s bin=%t", e.Scope, e.Name, typeinfo.Name(e.Elem), e.BinSized))
	}
	rebind := func(e *domain.RebindEvent) {
		j.record(e.Type, e.Node, fmt.Sprintf("%s: %s -> %s", e.Group, typeinfo.Name(e.From), typeinfo.Name(e.To)))
	}
	return domain.LifecycleHooks{
		OnPortCreated: port,
		OnPortRetyped: port,
		OnPortRemoved: port,
		OnCacheEvicted: func(e *domain.CacheEvent) {
			if e.Evicted > 0 {
				j.record(e.Type, "", fmt.Sprintf("frame %d: %d evicted, %d remaining", e.Frame, e.Evicted, e.Remaining))
			}
		},
		OnTypeChangeEnd: rebind,
		OnTypeLearnt:    rebind,
	}
}
