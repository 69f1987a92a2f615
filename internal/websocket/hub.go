package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/friendstransport/fleetgo/internal/models"
)

// EventMessage is what subscribers receive for every committed parcel event
type EventMessage struct {
	Type  string             `json:"type"`
	Event models.ParcelEvent `json:"event"`
}

// Hub maintains the set of active subscribers and fans parcel events out to them
type Hub struct {
	// Registered clients map: client ID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan models.ParcelEvent
	done       chan struct{}

	// Guards clients and each client's watch filter
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.ParcelEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("📡 Event subscriber connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("📴 Event subscriber disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

func (h *Hub) fanOut(ev models.ParcelEvent) {
	payload, err := json.Marshal(EventMessage{Type: "PARCEL_EVENT", Event: ev})
	if err != nil {
		log.Printf("⚠️ Error marshaling event %s: %v", ev.ID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.watch != "" && client.watch != ev.TrackingID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Buffer full or client dead
			log.Printf("⚠️ Dropping event for slow subscriber %s", client.ID)
		}
	}
}

// Publish queues ev for delivery. It never blocks the caller; events are
// dropped when the queue is full.
func (h *Hub) Publish(ev models.ParcelEvent) {
	select {
	case h.broadcast <- ev:
	default:
		log.Printf("⚠️ Event queue full, dropping %s event for %s", ev.Kind, ev.TrackingID)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setWatch(c *Client, trackingID string) {
	h.mu.Lock()
	c.watch = trackingID
	h.mu.Unlock()
}

// deliver queues msg for c unless c has already been dropped
func (h *Hub) deliver(c *Client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
