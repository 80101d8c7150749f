package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum message size allowed from peer.

	storeTimeout = 5 * time.Second
)

// Client is a middleman between one websocket connection and the hub.
// One Client exists per live socket; it is created on connect and
// destroyed on disconnect, never persisted.
type Client struct {
	id       string
	room     string
	username string

	hub      *Hub
	store    MessageLog
	presence Presence
	log      *zap.Logger

	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
}

func (c *Client) ID() string { return c.id }

// Deliver enqueues the payload without blocking. A full or abandoned
// send buffer reports false and the hub drops this client; its own
// disconnect handling cleans up the rest.
func (c *Client) Deliver(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// readPump pumps inbound frames from the websocket into the store and
// the hub. On any read failure the session transitions to Closed: the
// leave notification goes out, the client deregisters, and presence is
// removed best-effort.
func (c *Client) readPump() {
	defer func() {
		c.hub.Broadcast(c.room, systemFrame(c.username+" left the chat.", time.Now()))
		c.hub.Leave(c.room, c)

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := c.presence.Remove(ctx, c.room, c.username); err != nil {
			// self-heals via TTL expiry
			c.log.Warn("presence remove failed", zap.String("room", c.room), zap.Error(err))
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", zap.String("room", c.room), zap.Error(err))
			}
			break
		}
		c.handleInbound(raw)
	}
}

// handleInbound validates, persists and fans out one client frame.
func (c *Client) handleInbound(raw []byte) {
	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil || in.Message == "" || in.Username == "" {
		// malformed frames are rejected to the sender, never broadcast
		c.Deliver(errorFrame("message and username must be non-empty", time.Now()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	msg, err := c.store.Append(ctx, c.room, in.Username, in.Message)
	if err != nil {
		// an unpersisted message is not broadcast, keeping history
		// replay and live delivery consistent
		c.log.Error("message append failed", zap.String("room", c.room), zap.Error(err))
		c.Deliver(errorFrame("message could not be delivered", time.Now()))
		return
	}

	if err := c.presence.MarkActive(ctx, c.room, in.Username); err != nil {
		c.log.Warn("presence refresh failed", zap.String("room", c.room), zap.Error(err))
	}

	c.hub.Broadcast(c.room, chatFrame(msg.Username, msg.Content, msg.CreatedAt))
}

// writePump pumps payloads from the send buffer to the websocket and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// drain anything already queued before blocking again
			for i := len(c.send); i > 0; i-- {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
