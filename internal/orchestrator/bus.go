package orchestrator

import (
	"sync"
)

// Listener is a callback invoked for each published event.
type Listener func(Event)

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	kind EventKind
	id   uint64
}

// Bus is a thread-safe publish/subscribe hub for orchestrator events.
// Listeners are invoked synchronously, in registration order, on the
// goroutine that publishes the event.
type Bus struct {
	// listeners maps event kinds to registered listeners by subscription id.
	listeners map[EventKind]map[uint64]Listener
	// order preserves listener registration order per kind.
	order map[EventKind][]uint64
	// nextID is the next subscription id to hand out.
	nextID uint64
	// mu protects all fields.
	mu sync.RWMutex
}

// NewBus creates a new empty event bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventKind]map[uint64]Listener),
		order:     make(map[EventKind][]uint64),
	}
}

// Subscribe registers a listener for the given event kind.
// The returned subscription is passed to Unsubscribe to remove it.
func (b *Bus) Subscribe(kind EventKind, fn Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := Subscription{kind: kind, id: b.nextID}

	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[uint64]Listener)
	}
	b.listeners[kind][sub.id] = fn
	b.order[kind] = append(b.order[kind], sub.id)
	return sub
}

// Unsubscribe removes a previously registered listener.
// Unsubscribing twice is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m := b.listeners[sub.kind]; m != nil {
		delete(m, sub.id)
	}
	ids := b.order[sub.kind]
	for i, id := range ids {
		if id == sub.id {
			b.order[sub.kind] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

// Publish delivers an event to every listener registered for its kind.
// The listener list is snapshotted under the lock so listeners may
// subscribe or unsubscribe from within their callback.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	ids := b.order[event.Kind]
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		if fn, ok := b.listeners[event.Kind][id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

// ListenerCount returns the number of listeners registered for a kind.
func (b *Bus) ListenerCount(kind EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}
