package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is a single websocket connection registered to a session room.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub

	// Room is owned by the hub goroutine once the client is registered.
	Room     string
	Username string
	// Authenticated is this page's view of its session. It starts true
	// for connections opened with a session and drops to false when the
	// session ends.
	Authenticated atomic.Bool

	// mu guards closed and every send on Send, so a frame is never queued
	// after the hub closes the channel.
	mu     sync.Mutex
	closed bool
	Send   chan []byte
}

func NewClient(conn *websocket.Conn, hub *Hub, room, username string, authenticated bool) *Client {
	c := &Client{
		Conn:     conn,
		Hub:      hub,
		Room:     room,
		Username: username,
		Send:     make(chan []byte, 32),
	}
	c.Authenticated.Store(authenticated)
	return c
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Enqueue queues a frame for this client. It reports false if the buffer is
// full or the hub has already closed the client.
func (c *Client) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) ReadPump(onMessage func([]byte)) {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			// Expected close errors are common.
			return
		}
		if onMessage != nil {
			onMessage(message)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Debug("ws ping error", "user", c.Username, "error", err)
				return
			}
		}
	}
}
