package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var m Message
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("bad frame %s: %v", b, err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return Message{}
}

func TestHub_EndSession(t *testing.T) {
	h := startHub(t)
	a := NewClient(nil, h, "session:a", "jdoe", true)
	a2 := NewClient(nil, h, "session:a", "jdoe", true)
	b := NewClient(nil, h, "session:b", "other", true)
	for _, c := range []*Client{a, a2, b} {
		h.Register(c)
	}
	if n := h.RoomSize("session:a"); n != 2 {
		t.Fatalf("RoomSize(session:a) = %d, want 2", n)
	}

	h.EndSession("session:a", "session_ended", map[string]string{"redirect": "/login"})

	for _, c := range []*Client{a, a2} {
		if m := recv(t, c); m.Type != "session_ended" {
			t.Errorf("frame type = %q, want session_ended", m.Type)
		}
	}
	if n := h.RoomSize("session:a"); n != 0 {
		t.Errorf("ended room still has %d clients", n)
	}
	if n := h.RoomSize(AnonymousRoom); n != 2 {
		t.Errorf("anonymous room has %d clients, want 2", n)
	}
	if a.Authenticated.Load() || a2.Authenticated.Load() {
		t.Error("clients of an ended session must be logged out")
	}
	if !b.Authenticated.Load() {
		t.Error("other sessions must be untouched")
	}
	select {
	case m := <-b.Send:
		t.Errorf("other session received %s", m)
	default:
	}
}

func TestHub_BroadcastAndUnregister(t *testing.T) {
	h := startHub(t)
	c := NewClient(nil, h, "", "", false)
	h.Register(c)
	if n := h.RoomSize(AnonymousRoom); n != 1 {
		t.Fatalf("client without room not placed in anonymous room: %d", n)
	}

	h.Broadcast(AnonymousRoom, "ping", nil)
	if m := recv(t, c); m.Type != "ping" {
		t.Errorf("frame type = %q", m.Type)
	}

	h.Unregister(c)
	if _, ok := <-c.Send; ok {
		t.Error("send channel should be closed after Unregister")
	}
	if n := h.RoomSize(AnonymousRoom); n != 0 {
		t.Errorf("RoomSize after Unregister = %d", n)
	}
}

func TestHub_StoppedIsNoop(t *testing.T) {
	h := NewHub(nil)
	h.Stop()
	c := NewClient(nil, h, "session:x", "", true)

	done := make(chan struct{})
	go func() {
		h.Register(c)
		h.Broadcast("session:x", "x", nil)
		h.EndSession("session:x", "x", nil)
		h.Unregister(c)
		_ = h.RoomSize("session:x")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stopped hub blocked a caller")
	}
	if c.Enqueue([]byte("x")) {
		t.Error("Enqueue on a client of a stopped hub should fail")
	}
}

func TestClient_EnqueueRacesClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := NewClient(nil, nil, "session:r", "", true)
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := 0; n < 64; n++ {
					c.Enqueue([]byte("x"))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.closeSend()
		}()
		wg.Wait()

		c.closeSend()
		if c.Enqueue([]byte("x")) {
			t.Fatal("Enqueue succeeded after close")
		}
		for range c.Send {
		}
	}
}

func TestHubRef(t *testing.T) {
	h1, h2 := NewHub(nil), NewHub(nil)
	ref := NewHubRef(h1)
	if got, ok := ref.Get(); !ok || got != h1 {
		t.Fatal("Get() did not return the initial hub")
	}
	ref.Set(h2)
	if got, _ := ref.Get(); got != h2 {
		t.Fatal("Set() did not swap the hub")
	}
	ref.Set(nil)
	if _, ok := ref.Get(); ok {
		t.Fatal("Get() reported a nil hub as present")
	}
}
