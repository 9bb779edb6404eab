package cache

import "github.com/aretw0/prism/pkg/domain"

// DefaultWindow is the number of frames a written value stays usable.
const DefaultWindow = 2

// Option configures a Cache.
type Option func(*Cache)

// WithWindow sets the usable window in frames. Values below 1 are ignored.
func WithWindow(frames int) Option {
	return func(c *Cache) {
		if frames >= 1 {
			c.window = int64(frames)
		}
	}
}

// Cache stores projected member values per object identity.
type Cache struct {
	clock   *FrameClock
	window  int64
	entries map[Identity]*Entry
	evicted int
}

// New creates a cache bound to clock.
func New(clock *FrameClock, opts ...Option) *Cache {
	c := &Cache{
		clock:   clock,
		window:  DefaultWindow,
		entries: make(map[Identity]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clock returns the frame clock the cache is bound to.
func (c *Cache) Clock() *FrameClock { return c.clock }

// Window returns the usable window in frames.
func (c *Cache) Window() int { return int(c.window) }

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.entries) }

// Evicted returns the number of entries evicted since the cache was created.
func (c *Cache) Evicted() int { return c.evicted }

// GetOrCreate returns the entry for id, creating it if needed.
// A new entry counts as touched in the current frame.
func (c *Cache) GetOrCreate(id Identity) *Entry {
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &Entry{
		cache:     c,
		slots:     make(map[string]*Slot),
		lastWrite: c.clock.Now(),
	}
	c.entries[id] = e
	return e
}

// Lookup returns the entry for id if present.
func (c *Cache) Lookup(id Identity) (*Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// EvictStale removes every entry whose last write is older than the usable window
// and returns how many were removed. Call it once per cycle, after all nodes evaluated.
func (c *Cache) EvictStale() int {
	now := c.clock.Now()
	removed := 0
	for id, e := range c.entries {
		if !c.usable(e.lastWrite, now) {
			delete(c.entries, id)
			removed++
		}
	}
	c.evicted += removed
	return removed
}

func (c *Cache) usable(frame, now int64) bool {
	return frame >= now-c.window
}

// Entry holds the member slots of one object.
type Entry struct {
	cache     *Cache
	slots     map[string]*Slot
	lastWrite int64
}

// Member returns the slot for the named member, creating it if needed.
func (e *Entry) Member(name string) *Slot {
	if s, ok := e.slots[name]; ok {
		return s
	}
	s := &Slot{entry: e}
	e.slots[name] = s
	return s
}

// Used reports whether the entry was written within the usable window.
func (e *Entry) Used() bool {
	return e.cache.usable(e.lastWrite, e.cache.clock.Now())
}

// LastWrite returns the frame of the most recent slot write.
func (e *Entry) LastWrite() int64 { return e.lastWrite }

// Slot holds the last projected values of one member.
// Scalar members store one value, enumerables one bin, dictionaries a keys bin and a values bin.
type Slot struct {
	entry   *Entry
	kind    domain.Kind
	values  []any
	frame   int64
	written bool
}

// Write stores values for kind and stamps the slot with the current frame.
func (s *Slot) Write(kind domain.Kind, values ...any) {
	now := s.entry.cache.clock.Now()
	s.kind = kind
	s.values = append(s.values[:0], values...)
	s.frame = now
	s.written = true
	if now > s.entry.lastWrite {
		s.entry.lastWrite = now
	}
}

// WrittenThisFrame reports whether the slot was written in the current frame.
func (s *Slot) WrittenThisFrame() bool {
	return s.written && s.frame == s.entry.cache.clock.Now()
}

// Read returns the stored values if they were written within the usable window
// and match kind.
func (s *Slot) Read(kind domain.Kind) ([]any, bool) {
	if !s.written || s.kind != kind || !s.entry.cache.usable(s.frame, s.entry.cache.clock.Now()) {
		return nil, false
	}
	return s.values, true
}

// Frame returns the frame of the last write.
func (s *Slot) Frame() int64 { return s.frame }
