// Package realtime pushes booking events to staff dashboards over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"facilityhub/internal/events"

	"github.com/gorilla/websocket"
)

const sendBuffer = 32

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	userID    int64
	resources map[int64]bool
}

// wants reports whether the client subscribed to resourceID. A client with no
// filter receives everything.
func (c *client) wants(resourceID int64) bool {
	if len(c.resources) == 0 {
		return true
	}
	return c.resources[resourceID]
}

type Hub struct {
	clients map[*client]struct{}
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish implements events.Publisher. Slow clients whose buffer is full are
// dropped instead of blocking the booking request.
func (h *Hub) Publish(_ context.Context, e events.BookingEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	var slow []*client
	h.mutex.RLock()
	for c := range h.clients {
		if !c.wants(e.ResourceID) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mutex.RUnlock()

	for _, c := range slow {
		h.unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
	return nil
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
	}
}
