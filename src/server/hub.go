package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"coin-control/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (b *Bridge) handleWebsockets() {
	for {
		select {
		case client := <-b.register:
			b.clientsMu.Lock()
			b.clients[client] = struct{}{}
			b.clientsMu.Unlock()

			// Send the session state on connect so the view renders the
			// right screen immediately
			client.send <- models.MBridgeMessage{Type: "session", Data: b.Session.Snapshot()}

		case client := <-b.unregister:
			b.clientsMu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.send)
			}
			b.clientsMu.Unlock()
			client.dispose()

		case message := <-b.broadcast:
			b.clientsMu.Lock()
			for client := range b.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(b.clients, client)
					close(client.send)
					client.dispose()
				}
			}
			b.clientsMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:")
	},
}

// -----------------------------------------------------------------------------

func (b *Bridge) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  b,
		conn: conn,
		feed: b.NewFeed(),
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MBridgeMessage, 256),
	}

	b.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage dispatches one inbound view message. Only the focus
// action exists today; unknown actions are dropped, malformed frames
// disconnect the client.
func (b *Bridge) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MFocusCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		b.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Action != "focus" || cmd.Symbol == "" {
		return
	}

	client.focus(cmd.Symbol)
}
