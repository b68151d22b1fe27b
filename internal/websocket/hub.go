package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// Hub maintains the set of connected viewers and fans published events out
// to all of them. Delivery is at-most-once, FIFO per viewer relative to
// publish order; viewers with a full send buffer are pruned rather than
// allowed to block the publisher.
type Hub struct {
	// Registered viewers
	clients map[*Client]bool

	// Outbound events to fan out
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Logger
	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.Get().RecordViewerConnect()
			h.logger.Info().
				Str("viewer_id", client.id).
				Int("total_viewers", total).
				Msg("viewer connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordViewerDisconnect()
				h.logger.Info().
					Str("viewer_id", client.id).
					Int("total_viewers", len(h.clients)).
					Msg("viewer disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Publish fans a lifecycle event out to every connected viewer. Publishing
// with zero viewers is a no-op, never an error.
func (h *Hub) Publish(event types.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(event.Type)).Msg("failed to marshal event")
		return
	}
	h.broadcast <- data
}

// ClientCount returns the number of connected viewers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// fanOut sends a raw message to all viewers, dropping those whose send
// buffer is full.
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Viewer's send buffer is full, close and remove it
			close(client.send)
			delete(h.clients, client)
			metrics.Get().RecordViewerDisconnect()
			h.logger.Warn().
				Str("viewer_id", client.id).
				Msg("viewer send buffer full, closing connection")
		}
	}
}
