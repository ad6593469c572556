package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a write to a client may take.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before dropping a client.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait so pings land in time.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays load from file:// kiosks at venues, so origins vary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEnvelope frames every hub push with an event type so clients can
// dispatch without sniffing the payload.
type wsEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub fans broadcast messages out to connected websocket clients. All
// client set mutations happen on the Run goroutine.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	count      atomic.Int64
	logger     *slog.Logger
}

// NewHub creates a hub. Call Run on its own goroutine before serving
// websocket upgrades.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 8),
		logger:     logger,
	}
}

// Run owns the client set. Clients that cannot keep up with the
// broadcast stream are disconnected rather than blocking the hub.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int64(len(h.clients)))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// ClientCount reports the number of connected clients. Safe to call
// from any goroutine.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// BroadcastJSON encodes payload under the given event name and queues
// it for every connected client.
func (h *Hub) BroadcastJSON(event string, payload any) {
	data, err := json.Marshal(wsEnvelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("websocket broadcast encode failed", "event", event, "error", err)
		return
	}
	h.broadcast <- data
}

// wsClient is one websocket connection with a buffered outbound queue.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades the connection and registers it with the hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames so pongs and close frames are
// processed. The feed is one-way; client messages are discarded.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes all writes to the connection, including pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
