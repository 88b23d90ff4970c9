package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Server -> client event types pushed over the websocket.
const (
	EventFileAdded     = "file:added"
	EventParseComplete = "parse:complete"
	EventParseError    = "parse:error"
	EventPong          = "pong"
)

// WSMessage is the websocket event envelope.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// EventHub pushes UI feedback events (toasts) to connected clients.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewEventHub creates the hub.
func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 32 * 1024,
			// Local-first app: the page is served from this same process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client goes away. Inbound traffic is limited to ping keep-alives.
func (h *EventHub) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return nil
		}
		if msg.Type == "ping" {
			h.send(conn, WSMessage{Type: EventPong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// Broadcast pushes one event to every connected client.
func (h *EventHub) Broadcast(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to encode event payload", zap.Error(err))
		return
	}
	msg := WSMessage{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *EventHub) send(conn *websocket.Conn, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
		delete(h.conns, conn)
	}
}
