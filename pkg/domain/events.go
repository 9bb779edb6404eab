package domain

import (
	"reflect"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPortCreated     EventType = "port_created"
	EventPortRetyped     EventType = "port_retyped"
	EventPortRemoved     EventType = "port_removed"
	EventMemberRead      EventType = "member_read"
	EventCacheHit        EventType = "cache_hit"
	EventCacheEvicted    EventType = "cache_evicted"
	EventTypeChangeBegin EventType = "type_change_begin"
	EventTypeChangeEnd   EventType = "type_change_end"
	EventTypeLearnt      EventType = "type_learnt"
)

// PortEvent describes a change in a port group.
type PortEvent struct {
	Type     EventType
	Node     string
	Scope    Scope
	Name     string
	Elem     reflect.Type
	BinSized bool
}

// MemberEvent describes one member projected for one slice.
type MemberEvent struct {
	Type   EventType
	Node   string
	Object reflect.Type
	Member string
	Slice  int
}

// CacheEvent describes an eviction checkpoint.
type CacheEvent struct {
	Type      EventType
	Frame     int64
	Evicted   int
	Remaining int
}

// RebindEvent describes a type transition of a rebinding group.
type RebindEvent struct {
	Type  EventType
	Node  string
	Group string
	From  reflect.Type // nil when the group was unbound
	To    reflect.Type
}

// LifecycleHooks defines callbacks for observability.
// Every field is optional. Callbacks run synchronously on the evaluation thread.
type LifecycleHooks struct {
	OnPortCreated     func(*PortEvent)
	OnPortRetyped     func(*PortEvent)
	OnPortRemoved     func(*PortEvent)
	OnMemberRead      func(*MemberEvent)
	OnCacheHit        func(*MemberEvent)
	OnCacheEvicted    func(*CacheEvent)
	OnTypeChangeBegin func(*RebindEvent)
	OnTypeChangeEnd   func(*RebindEvent)
	OnTypeLearnt      func(*RebindEvent)
}

// MergeHooks returns hooks that fan every event out to each of the given hooks in order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPortCreated:     fan(all, func(h LifecycleHooks) func(*PortEvent) { return h.OnPortCreated }),
		OnPortRetyped:     fan(all, func(h LifecycleHooks) func(*PortEvent) { return h.OnPortRetyped }),
		OnPortRemoved:     fan(all, func(h LifecycleHooks) func(*PortEvent) { return h.OnPortRemoved }),
		OnMemberRead:      fan(all, func(h LifecycleHooks) func(*MemberEvent) { return h.OnMemberRead }),
		OnCacheHit:        fan(all, func(h LifecycleHooks) func(*MemberEvent) { return h.OnCacheHit }),
		OnCacheEvicted:    fan(all, func(h LifecycleHooks) func(*CacheEvent) { return h.OnCacheEvicted }),
		OnTypeChangeBegin: fan(all, func(h LifecycleHooks) func(*RebindEvent) { return h.OnTypeChangeBegin }),
		OnTypeChangeEnd:   fan(all, func(h LifecycleHooks) func(*RebindEvent) { return h.OnTypeChangeEnd }),
		OnTypeLearnt:      fan(all, func(h LifecycleHooks) func(*RebindEvent) { return h.OnTypeLearnt }),
	}
}

func fan[E any](all []LifecycleHooks, pick func(LifecycleHooks) func(*E)) func(*E) {
	var fns []func(*E)
	for _, h := range all {
		if fn := pick(h); fn != nil {
			fns = append(fns, fn)
		}
	}
	if len(fns) == 0 {
		return nil
	}
	return func(e *E) {
		for _, fn := range fns {
			fn(e)
		}
	}
}
