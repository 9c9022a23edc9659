// Package websocket fans session events out to the browser pages that share
// a session.
//
// Every connection joins the room of the session it was opened with. When
// that session ends, EndSession tells every page in the room and moves the
// pages to the anonymous room, so their next navigation is decided as
// logged out.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// AnonymousRoom holds connections whose session has ended.
const AnonymousRoom = "session:none"

// Hub manages websocket clients and room-based broadcasts. All room state
// is owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Broadcast
	end        chan Broadcast
	count      chan countReq

	done     chan struct{}
	stopOnce sync.Once

	rooms  map[string]map[*Client]bool
	logger *slog.Logger
}

type Broadcast struct {
	Room    string
	Type    string
	Payload any
}

type countReq struct {
	room  string
	reply chan int
}

// Message is the envelope of every frame sent to a page.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Encode builds a Message frame.
func Encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Broadcast, 256),
		end:        make(chan Broadcast, 64),
		count:      make(chan countReq),
		done:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
		logger:     logger,
	}
}

// Run processes hub requests until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for room, clients := range h.rooms {
				for c := range clients {
					c.closeSend()
				}
				delete(h.rooms, room)
			}
			return
		case c := <-h.register:
			if c.Room == "" {
				c.Room = AnonymousRoom
			}
			h.add(c, c.Room)
		case c := <-h.unregister:
			h.removeClient(c)
		case b := <-h.broadcast:
			h.broadcastToRoom(b.Room, b.Type, b.Payload)
		case b := <-h.end:
			h.endSession(b)
		case q := <-h.count:
			q.reply <- len(h.rooms[q.room])
		}
	}
}

// Stop ends Run. Afterwards every hub method is a no-op, so clients of a
// dead hub never block.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.closeSend()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(room, typ string, payload any) {
	select {
	case h.broadcast <- Broadcast{Room: room, Type: typ, Payload: payload}:
	case <-h.done:
	}
}

// EndSession sends typ/payload to every client in room, marks them logged
// out and moves them to AnonymousRoom.
func (h *Hub) EndSession(room, typ string, payload any) {
	select {
	case h.end <- Broadcast{Room: room, Type: typ, Payload: payload}:
	case <-h.done:
	}
}

// RoomSize reports how many clients are in room. It returns 0 once the
// hub is stopped.
func (h *Hub) RoomSize(room string) int {
	q := countReq{room: room, reply: make(chan int, 1)}
	select {
	case h.count <- q:
	case <-h.done:
		return 0
	}
	select {
	case n := <-q.reply:
		return n
	case <-h.done:
		return 0
	}
}

func (h *Hub) add(c *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]bool{}
	}
	h.rooms[room][c] = true
}

func (h *Hub) detach(c *Client) {
	if c.Room != "" && h.rooms[c.Room] != nil {
		delete(h.rooms[c.Room], c)
		if len(h.rooms[c.Room]) == 0 {
			delete(h.rooms, c.Room)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	h.detach(c)
	c.closeSend()
}

func (h *Hub) endSession(b Broadcast) {
	clients := h.rooms[b.Room]
	if len(clients) == 0 {
		return
	}
	for c := range clients {
		c.Authenticated.Store(false)
	}
	h.broadcastToRoom(b.Room, b.Type, b.Payload)
	for c := range h.rooms[b.Room] {
		h.detach(c)
		c.Room = AnonymousRoom
		h.add(c, AnonymousRoom)
	}
	h.logger.Debug("ws session ended", "room", b.Room, "clients", len(clients))
}

func (h *Hub) broadcastToRoom(room, typ string, payload any) {
	clients := h.rooms[room]
	if len(clients) == 0 {
		return
	}

	data, err := Encode(typ, payload)
	if err != nil {
		h.logger.Error("ws broadcast marshal error", "room", room, "type", typ, "error", err)
		return
	}

	for c := range clients {
		if !c.Enqueue(data) {
			// Backpressure / dead client.
			h.removeClient(c)
		}
	}
}
