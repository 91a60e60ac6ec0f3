package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection to the shared scene. UserID is the
// session ID of the token the client connected with.
//
// Scene states are coalesced: a client that cannot keep up with the render
// rate receives the newest scene instead of a backlog. A pending scene is
// always written before the next queued message, so an op.broadcast never
// overtakes the render it caused.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	UserID      string
	DisplayName string
	ClientID    string

	send  chan []byte
	scene chan []byte // holds at most the latest scene.state

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		DisplayName: displayName,
		ClientID:    clientID,
		send:        make(chan []byte, sendBuffer),
		scene:       make(chan []byte, 1),
	}
}

// ReadPump decodes incoming messages, stamps them with the sender's
// identity and hands them to the hub until the connection ends.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "session", c.UserID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "session", c.UserID)
			c.Send(newMessage(TypeError, ErrorPayload{Message: "invalid message"}))
			continue
		}
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID

		c.hub.handleMessage(c, &msg)
	}
}

// WritePump writes queued messages and keeps the connection alive with
// pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data := <-c.scene:
			if !c.write(ctx, data) {
				return
			}

		case data, ok := <-c.send:
			if !ok {
				return
			}
			select {
			case pending := <-c.scene:
				if !c.write(ctx, pending) {
					return
				}
			default:
			}
			if !c.write(ctx, data) {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Debug("write error", "error", err, "session", c.UserID)
		return false
	}
	return true
}

// Send queues msg without blocking. Messages to a slow or departed client
// are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "session", c.UserID, "type", msg.Type)
	}
}

// SendScene replaces any scene state the client has not been sent yet.
func (c *Client) SendScene(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal scene state", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case <-c.scene:
	default:
	}
	c.scene <- data
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
