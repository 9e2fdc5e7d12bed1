package events

import (
	"sync"

	"coin-control/src/interfaces"
)

// -----------------------------------------------------------------------------
// Bus
//
// In-process replacement for the host runtime's named-event system. Delivery
// is synchronous. Cancel removes the handler for every later Emit; an Emit
// that already snapshotted its handler set may still invoke the handler one
// last time, so subscribers that care must gate stale deliveries themselves.
// -----------------------------------------------------------------------------

type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[int]func(interface{})
	nextID int
}

// -----------------------------------------------------------------------------

func NewBus() *Bus {
	return &Bus{
		topics: make(map[string]map[int]func(interface{})),
	}
}

// -----------------------------------------------------------------------------

// Emit delivers the payload to every handler currently subscribed to topic.
func (b *Bus) Emit(topic string, payload interface{}) {
	b.mu.RLock()
	handlers := make([]func(interface{}), 0, len(b.topics[topic]))
	for _, h := range b.topics[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

// -----------------------------------------------------------------------------

// Subscribe registers a handler and returns its cancellation handle.
func (b *Bus) Subscribe(topic string, handler func(payload interface{})) interfaces.IEventHandle {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]func(interface{}))
	}

	id := b.nextID
	b.nextID++
	b.topics[topic][id] = handler

	return &handle{bus: b, topic: topic, id: id}
}

// -----------------------------------------------------------------------------
// Handle
// -----------------------------------------------------------------------------

type handle struct {
	bus   *Bus
	topic string
	id    int
	once  sync.Once
}

// -----------------------------------------------------------------------------

func (h *handle) Cancel() {
	h.once.Do(func() {
		h.bus.mu.Lock()
		defer h.bus.mu.Unlock()

		if subs, ok := h.bus.topics[h.topic]; ok {
			delete(subs, h.id)
			if len(subs) == 0 {
				delete(h.bus.topics, h.topic)
			}
		}
	})
}
