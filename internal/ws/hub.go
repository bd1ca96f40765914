package ws

import (
	"encoding/json"
	"sync"
)

// Event is a message pushed to the UI clients watching an order.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// orderEvent routes an event to one order's room.
type orderEvent struct {
	OrderID string
	Event   Event
}

// Hub maintains the set of connected UI clients, grouped into rooms by the
// order they are watching, and broadcasts ledger changes to them.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *orderEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *orderEvent, 256),
	}
}

// Run is the hub's main loop; call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.orderID] == nil {
				h.rooms[client.orderID] = make(map[*Client]bool)
			}
			h.rooms[client.orderID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.orderID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.orderID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.OrderID]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full; drop the connection.
					close(client.send)
					delete(h.rooms[event.OrderID], client)
					if len(h.rooms[event.OrderID]) == 0 {
						delete(h.rooms, event.OrderID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToOrder sends an event to every client watching the order.
func (h *Hub) BroadcastToOrder(orderID string, event Event) {
	h.broadcast <- &orderEvent{
		OrderID: orderID,
		Event:   event,
	}
}
