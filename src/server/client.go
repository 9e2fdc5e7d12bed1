package server

import (
	"context"
	"sync"
	"time"

	"coin-control/src/interfaces"
	"coin-control/src/models"
	"coin-control/src/pricefeed"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096 // Focus commands are tiny
)

// -----------------------------------------------------------------------------
// Client Structure
//
// One connected view. Each client owns its own price feed manager, so views
// focus assets independently and a disconnect tears down exactly that view's
// subscription.
// -----------------------------------------------------------------------------

type Client struct {
	hub  *Bridge
	conn *websocket.Conn
	send chan models.MBridgeMessage
	feed *pricefeed.Manager

	mu     sync.Mutex
	handle interfaces.IEventHandle
}

// -----------------------------------------------------------------------------
// Focus
// -----------------------------------------------------------------------------

// focus switches this view's live asset. The feed handles the
// stop-old-before-start-new ordering; here we just swap which stream key
// forwards quote pushes to the socket.
func (c *Client) focus(symbol string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c.mu.Lock()
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	c.mu.Unlock()

	if err := c.feed.Focus(ctx, symbol); err != nil {
		c.push(models.MBridgeMessage{Type: "error", Data: map[string]string{"message": err.Error()}})
		return
	}

	topic := models.PriceTopic(symbol)
	handle := c.feed.Bus.Subscribe(topic, func(interface{}) {
		if q := c.feed.Quote(); q != nil {
			c.push(models.MBridgeMessage{Type: "quote", Data: q})
		}
	})

	c.mu.Lock()
	c.handle = handle
	c.mu.Unlock()

	// Initial snapshot right away, live updates follow via the stream key
	if q := c.feed.Quote(); q != nil {
		c.push(models.MBridgeMessage{Type: "quote", Data: q})
	}
}

// -----------------------------------------------------------------------------

// push is a non-blocking send; a full buffer drops the frame, the hub loop
// prunes clients that stay slow.
func (c *Client) push(msg models.MBridgeMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// -----------------------------------------------------------------------------

// dispose releases everything this view held: the forwarding handle and the
// feed's live subscription. Called by the hub once the client is unregistered.
func (c *Client) dispose() {
	c.mu.Lock()
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	c.mu.Unlock()

	c.feed.Dispose()
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.hub.Logger.Info("View disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		// Handle the message (focus commands)
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
