package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event types pushed to connected dashboard clients.
const (
	EventDashboardUpdate = "dashboard_update"
	EventPointsConverted = "points_converted"
)

// Hub fans events out to connected dashboard clients. Delivery is
// best-effort, at-most-once: a slow client is dropped, never waited on.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Message struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.sendToAll(message)
		}
	}
}

// BroadcastDashboardUpdate tells connected dashboards to refresh.
func (h *Hub) BroadcastDashboardUpdate(reason string) {
	h.enqueue(Message{
		Type:      EventDashboardUpdate,
		Message:   reason,
		Timestamp: time.Now().Unix(),
	})
}

// BroadcastPointsConverted pushes the human-readable conversion summary.
func (h *Hub) BroadcastPointsConverted(message string) {
	h.enqueue(Message{
		Type:      EventPointsConverted,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal hub message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Broadcast queue full; drop rather than block a caller.
		slog.Warn("hub broadcast queue full, dropping message", "type", msg.Type)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	slog.Info("dashboard client connected", "remote", client.RemoteAddr())
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		slog.Info("dashboard client disconnected", "remote", client.RemoteAddr())
	}
}

func (h *Hub) sendToAll(data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// ClientCount reports how many dashboard clients are connected.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
