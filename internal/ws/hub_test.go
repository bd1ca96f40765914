package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client without a real WebSocket connection.
func mockClient(hub *Hub, orderID string) *Client {
	return &Client{
		hub:     hub,
		orderID: orderID,
		send:    make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "order-1")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["order-1"] == nil {
		t.Fatal("order room not created")
	}
	if !hub.rooms["order-1"][client] {
		t.Fatal("client not registered in order room")
	}
}

func TestHubUnregistrationCleansUpRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "order-1")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["order-1"] != nil {
		t.Fatal("order room not cleaned up after last client unregistered")
	}
}

func TestBroadcastIsolatedPerOrder(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watching := mockClient(hub, "order-1")
	other := mockClient(hub, "order-2")

	hub.register <- watching
	hub.register <- other
	time.Sleep(10 * time.Millisecond)

	payload := json.RawMessage(`{"subtotal":"3500","total":"3850"}`)
	hub.BroadcastToOrder("order-1", Event{Type: "order.edited", Payload: payload})

	select {
	case msg := <-watching.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.edited" {
			t.Errorf("expected type 'order.edited', got %q", received.Type)
		}
		if string(received.Payload) != string(payload) {
			t.Errorf("expected payload %s, got %s", payload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("watching client did not receive the event")
	}

	select {
	case <-other.send:
		t.Fatal("client watching a different order received the event")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}

func TestBroadcastReachesAllClientsInRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clients := []*Client{
		mockClient(hub, "order-1"),
		mockClient(hub, "order-1"),
		mockClient(hub, "order-1"),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastToOrder("order-1", Event{
		Type:    "order.edited",
		Payload: json.RawMessage(`{"unsaved":true}`),
	})

	for i, c := range clients {
		select {
		case msg := <-c.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client %d: unmarshal: %v", i, err)
			}
			if received.Type != "order.edited" {
				t.Errorf("client %d: expected 'order.edited', got %q", i, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %d did not receive the event", i)
		}
	}
}

func TestBroadcastToEmptyRoomDoesNotLeak(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "order-1")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastToOrder("order-9", Event{
		Type:    "order.edited",
		Payload: json.RawMessage(`{}`),
	})

	select {
	case <-client.send:
		t.Fatal("client received an event for an order it is not watching")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}
