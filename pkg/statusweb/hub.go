// Package statusweb runs a read-only HTTP + WebSocket monitoring tap:
// it subscribes to module state transitions and decoded telemetry
// records and broadcasts them as JSON to connected clients. It cannot
// inject commands into any driver instance.
package statusweb

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dbehnke/afhds3d/pkg/logger"
)

// Event is one WebSocket message broadcast to clients.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Marshal converts an event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Client represents a WebSocket client connection.
type Client struct {
	ID       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub manages WebSocket client connections and broadcasts.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// Run starts the hub's event loop; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("status client registered", logger.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.messages)
			}
			h.mu.Unlock()
			h.logger.Debug("status client unregistered", logger.String("client_id", client.ID))

		case event := <-h.broadcast:
			data, err := event.Marshal()
			if err != nil {
				h.logger.Warn("failed to marshal status event", logger.Any("error", err))
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.messages <- data:
				default:
					h.logger.Warn("status client buffer full, dropping", logger.String("client_id", client.ID))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.messages)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast sends an event to all connected clients, dropping it if the
// hub's internal queue is full.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("status broadcast queue full, dropping event", logger.String("event_type", event.Type))
	}
}

// BroadcastModuleState announces a module's lifecycle state transition.
func (h *Hub) BroadcastModuleState(slot int, state string) {
	h.Broadcast(Event{
		Type: "module_state",
		Data: map[string]interface{}{
			"slot":  slot,
			"state": state,
		},
	})
}

// BroadcastTelemetry announces one decoded telemetry record.
func (h *Hub) BroadcastTelemetry(slot int, sensorType, sensorID byte, data []byte) {
	h.Broadcast(Event{
		Type: "telemetry",
		Data: map[string]interface{}{
			"slot":        slot,
			"sensor_type": sensorType,
			"sensor_id":   sensorID,
			"data":        data,
		},
	})
}

// Handler returns an HTTP handler for WebSocket connections.
func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		client := &Client{ID: r.RemoteAddr, conn: conn, messages: make(chan []byte, 256)}
		h.register <- client

		go func() {
			defer func() {
				h.unregister <- client
				_ = client.conn.Close()
			}()
			client.conn.SetReadLimit(1024)
			for {
				if _, _, err := client.conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			for msg := range client.messages {
				_ = client.conn.WriteMessage(websocket.TextMessage, msg)
			}
		}()
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
