// If you are AI: This file implements the WebSocket handler that streams
// hub events to clients as JSON frames.

package feed

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketConn defines the interface for WebSocket operations.
// This allows for easier testing and abstraction.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Handler upgrades HTTP requests and serves the live event feed.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a feed handler over the given hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for now
				// NOTE: In production, this should be restricted
				return true
			},
		},
	}
}

// ServeHTTP handles WebSocket upgrade and event streaming.
// Endpoint: GET /feed
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Feed upgrade failed: %v", err)
		return
	}

	id, c := h.hub.Attach()
	defer func() {
		h.hub.Detach(id)
		conn.Close()
	}()

	serveClient(conn, c)
}

// serveClient writes buffered events to conn as text frames until the
// client is detached or the write fails. Split from ServeHTTP so tests can
// drive it with a fake connection.
func serveClient(conn WebSocketConn, c *Client) {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
