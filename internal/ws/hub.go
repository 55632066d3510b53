package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event types pushed to venue subscribers.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderPartial   = "order.partial"
	EventOrderUpdated   = "order.updated"
	EventBookingPlaced  = "booking.placed"
	EventBookingUpdated = "booking.updated"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type venueEvent struct {
	venueID uuid.UUID
	event   Event
}

// Hub fans events out to the websocket clients of one venue at a time.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan venueEvent
	// done is closed when Run returns; join and leave stop waiting on it.
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan venueEvent, 256),
		done:       make(chan struct{}),
	}
}

// join hands c to Run. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands c back to Run. After shutdown Run has already closed c.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run owns room membership until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for venueID, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, venueID)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.venueID] == nil {
				h.rooms[c.venueID] = make(map[*Client]bool)
			}
			h.rooms[c.venueID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case ve := <-h.broadcast:
			message, err := json.Marshal(ve.event)
			if err != nil {
				log.Printf("ERROR: marshal ws event %s: %v", ve.event.Type, err)
				continue
			}
			h.mu.Lock()
			for c := range h.rooms[ve.venueID] {
				select {
				case c.send <- message:
				default:
					// slow consumer
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *Client) {
	clients, ok := h.rooms[c.venueID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.venueID)
	}
}

// Publish encodes payload and queues it for every subscriber of venueID.
// It never blocks the caller: when the queue is full the event is dropped.
func (h *Hub) Publish(venueID uuid.UUID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: encode %s payload: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- venueEvent{venueID: venueID, event: Event{Type: eventType, Payload: raw}}:
	default:
		log.Printf("WARN: ws broadcast queue full, dropping %s for venue %s", eventType, venueID)
	}
}

// Subscribers reports how many clients are connected to a venue.
func (h *Hub) Subscribers(venueID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[venueID])
}
