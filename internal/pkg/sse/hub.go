package sse

import (
	"sync"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	ActorID string
	Event   string
	Data    interface{}
}

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for an actor and returns the event channel
// and a cleanup function.
func (h *Hub) Subscribe(actorID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[actorID] == nil {
		h.subscribers[actorID] = make(map[chan Event]struct{})
	}
	h.subscribers[actorID][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[actorID], ch)
		close(ch)
		if len(h.subscribers[actorID]) == 0 {
			delete(h.subscribers, actorID)
		}
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a specific actor.
func (h *Hub) Publish(actorID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[actorID]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				// Skip if channel is full (non-blocking to prevent deadlock)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for an actor.
func (h *Hub) SubscriberCount(actorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[actorID]; ok {
		return len(subs)
	}
	return 0
}
