package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// EventMessage is what subscribers receive for every committed event.
type EventMessage struct {
	Type      string      `json:"type"`
	Event     types.Event `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub streams committed registry events to websocket subscribers. A subscriber may
// narrow the stream with the task_id and names query parameters.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool

	logger logging.Logger
}

type wsClient struct {
	id     string
	conn   *websocket.Conn
	send   chan *EventMessage
	taskID uint64
	names  map[types.EventName]bool
	once   sync.Once
}

func (c *wsClient) wants(e types.Event) bool {
	if c.taskID != 0 && e.TaskID != c.taskID {
		return false
	}
	return len(c.names) == 0 || c.names[e.Name]
}

// NewHub creates a hub accepting upgrades from allowedOrigins. "*" allows any origin.
func NewHub(allowedOrigins []string, logger logging.Logger) *Hub {
	h := &Hub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Emit queues events for every interested subscriber. Subscribers that cannot keep
// up are disconnected.
func (h *Hub) Emit(_ context.Context, events []types.Event) error {
	now := time.Now()
	var slow []*wsClient

	h.mu.RLock()
	for client := range h.clients {
		for _, e := range events {
			if !client.wants(e) {
				continue
			}
			select {
			case client.send <- &EventMessage{Type: "event", Event: e, Timestamp: now}:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Websocket client too slow, disconnecting", "client", client.id)
		h.unregister(client)
	}
	return nil
}

// ServeWS upgrades the request and subscribes the connection.
func (h *Hub) ServeWS(c *gin.Context) {
	var taskID uint64
	if raw := c.Query("task_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
			return
		}
		taskID = id
	}
	names := make(map[types.EventName]bool)
	for _, n := range strings.Split(c.Query("names"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			names[types.EventName(n)] = true
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan *EventMessage, sendBuffer),
		taskID: taskID,
		names:  names,
	}
	if !h.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("Websocket client connected", "client", c.id, "task_id", c.taskID, "clients", len(h.clients))
	return true
}

// unregister removes c and closes its send queue, which ends its write pump.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	remaining := len(h.clients)
	h.mu.Unlock()

	c.once.Do(func() {
		close(c.send)
		h.logger.Info("Websocket client disconnected", "client", c.id, "clients", remaining)
	})
}

// readPump discards client messages and keeps the connection alive with pongs.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Warn("Failed to set read deadline", "client", c.id, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Warn("Websocket closed unexpectedly", "client", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.logger.Warn("Failed to write websocket message", "client", c.id, "error", err)
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

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every subscriber and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	h.logger.Info("Websocket hub shut down", "disconnected", len(clients))
}
