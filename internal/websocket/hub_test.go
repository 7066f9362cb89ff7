package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, householdID int64) *Client {
	return &Client{
		hub:         hub,
		conn:        nil,
		householdID: householdID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	hub.Register(c1)
	hub.Register(c2)

	msg := NewMessage("occurrence", "completed", 42, map[string]any{"chore_id": float64(7)})
	hub.Broadcast(1, msg)

	// Check both clients received the message
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "occurrence_completed" {
				t.Errorf("expected type occurrence_completed, got %s", got.Type)
			}
			if got.Entity != "occurrence" {
				t.Errorf("expected entity occurrence, got %s", got.Entity)
			}
			if got.ID != 42 {
				t.Errorf("expected id 42, got %d", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := NewHub(slog.Default())

	mine := mockClient(hub, 1)
	theirs := mockClient(hub, 2)
	hub.Register(mine)
	hub.Register(theirs)

	hub.Broadcast(1, NewMessage("chore", "created", 9, nil))

	select {
	case <-mine.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	select {
	case <-theirs.send:
		t.Error("client in another household received the message")
	default:
	}

	hub.Unregister(mine)
	hub.Unregister(theirs)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(1, NewMessage("occurrence", "completed", 1, nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(1, NewMessage("test", "fill", int64(i), nil))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(1, NewMessage("test", "dropped", 999, nil))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("chore", "updated", 5, nil)
	if msg.Type != "chore_updated" {
		t.Errorf("expected type chore_updated, got %s", msg.Type)
	}
	if msg.Entity != "chore" {
		t.Errorf("expected entity chore, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		hid := int64(i%3 + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, hid)
			hub.Register(c)
			hub.Broadcast(hid, NewMessage("test", "concurrent", 0, nil))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	for hid := int64(1); hid <= 3; hid++ {
		if got := hub.ClientCount(hid); got != 0 {
			t.Errorf("household %d: expected 0 clients after concurrent test, got %d", hid, got)
		}
	}
}
