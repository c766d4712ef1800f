// Package notify fans ticket events out to SSE subscribers.
package notify

import (
	"sync"

	"github.com/nixo/fdebot/internal/models"
)

// Event types sent to dashboard clients.
const (
	TicketCreated = "TICKET_CREATED"
	TicketUpdated = "TICKET_UPDATED"
)

// Event is one ticket notification. Absorbed marks updates where a
// duplicate message was silently merged and no new content exists.
type Event struct {
	Type     string         `json:"type"`
	Ticket   *models.Ticket `json:"ticket"`
	Absorbed bool           `json:"absorbed,omitempty"`
}

// subscriberBuffer is each subscriber's channel capacity; events beyond it
// are dropped rather than blocking the publisher.
const subscriberBuffer = 16

// Hub is an in-process publish/subscribe fan-out. A slow subscriber loses
// events; it never stalls ingest.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers an event to every subscriber that has buffer room.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
