// Package operator streams delivered briefs to connected operator dashboards
// over WebSocket.
package operator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sendBuffer is how many briefs a slow dashboard may lag behind before
// further briefs are dropped for it.
const sendBuffer = 16

// Brief is one feed message.
type Brief struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel,omitempty"`
	Text      string    `json:"text,omitempty"`
	Delivered bool      `json:"delivered"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type client struct {
	id   string
	send chan Brief
}

// Hub tracks connected dashboards and fans briefs out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// register adds a dashboard. It returns nil once the hub is closed.
func (h *Hub) register() *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	c := &client{id: uuid.NewString(), send: make(chan Brief, sendBuffer)}
	h.clients[c.id] = c
	slog.Info("Operator feed connected", "client_id", c.id, "clients", len(h.clients))
	return c
}

// unregister removes a dashboard and closes its queue.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.id]; ok && current == c {
		delete(h.clients, c.id)
		close(c.send)
		slog.Info("Operator feed disconnected", "client_id", c.id, "clients", len(h.clients))
	}
}

// Broadcast queues b for every connected dashboard without blocking and
// returns how many accepted it.
func (h *Hub) Broadcast(b Brief) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	queued := 0
	for _, c := range h.clients {
		select {
		case c.send <- b:
			queued++
		default:
			slog.Warn("Operator feed client too slow, brief dropped", "client_id", c.id)
		}
	}
	return queued
}

// Count returns the number of connected dashboards.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every dashboard and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	slog.Info("Operator feed closed")
}
