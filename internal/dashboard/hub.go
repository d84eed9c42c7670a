// Package dashboard is the optional, read-only HTTP+WebSocket observer of
// SPEC_FULL.md §4.11, adapted from the teacher's internal/api package
// (gin router, bearer auth, per-IP rate limiting, gorilla/websocket hub).
// It never writes to any of the seven named pipeline queues.
package dashboard

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one notable pipeline transition published for the live feed
// (license acquired, treasure cashed, license lost to error).
type Event struct {
	Kind      string      `json:"kind"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Hub fans out Events to every connected WebSocket client, matching the
// teacher's broadcast-hub shape (internal/api's websocket.go) but with a
// per-client buffered channel instead of one shared broadcast channel, so
// one slow reader cannot starve the others.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan Event)}
}

func (h *Hub) register(conn *websocket.Conn) chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// Publish implements metrics.Publisher: it broadcasts to every connected
// client's buffered channel, dropping the event for any client whose
// buffer is already full rather than blocking the metrics sink.
func (h *Hub) Publish(kind string, payload interface{}) {
	ev := Event{Kind: kind, Timestamp: time.Now().UnixMilli(), Payload: payload}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}
