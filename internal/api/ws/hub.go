package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/portalconnect/internal/connect"
	"github.com/GriffinCanCode/portalconnect/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs browser access
	},
}

// Frame is one event pushed to subscribers
type Frame struct {
	ID        id.EventID    `json:"id"`
	SessionID string        `json:"session_id,omitempty"`
	Event     connect.Event `json:"event"`
	Timestamp int64         `json:"timestamp"`
}

// Recorder receives connection and frame counts
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

// inbound is what subscribers may send
type inbound struct {
	Type string `json:"type"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans classified portal events out to websocket subscribers
type Hub struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	closed   bool
	logger   *zap.Logger
	recorder Recorder
}

// NewHub creates an empty hub. recorder may be nil.
func NewHub(logger *zap.Logger, recorder Recorder) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		logger:   logger.Named("ws"),
		recorder: recorder,
	}
}

// Broadcast pushes ev to every subscriber. Subscribers that cannot keep
// up are disconnected.
func (h *Hub) Broadcast(sessionID string, ev connect.Event) (Frame, error) {
	frame := Frame{
		ID:        id.NewEventID(),
		SessionID: sessionID,
		Event:     ev,
		Timestamp: time.Now().Unix(),
	}
	data, err := sonic.Marshal(frame)
	if err != nil {
		return frame, err
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
			h.record("out", "event")
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow subscriber", zap.String("client_id", c.id.String()))
		h.unregister(c)
	}
	return frame, nil
}

// HandleConnection upgrades the request and serves one subscriber
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	h.logger.Debug("Subscriber connected", zap.String("client_id", cl.id.String()))
	h.enqueue(cl, map[string]interface{}{
		"type":      "system",
		"client_id": cl.id.String(),
		"message":   "subscribed to portal events",
	})

	go h.writePump(cl)
	h.readPump(cl)
}

// Count returns the number of subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.recorder != nil {
		h.recorder.IncWSConnections()
	}
	return true
}

// unregister removes c and closes its send queue, which stops the writer
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if h.recorder != nil {
		h.recorder.DecWSConnections()
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.record("in", "invalid")
			h.enqueue(c, errorFrame("invalid message"))
			continue
		}
		h.record("in", inboundLabel(msg.Type))

		switch msg.Type {
		case "ping":
			h.enqueue(c, map[string]interface{}{"type": "pong", "timestamp": time.Now().Unix()})
		default:
			h.enqueue(c, errorFrame("unknown message type"))
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// enqueue queues a control frame for one client
func (h *Hub) enqueue(c *client, payload interface{}) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// inboundLabel maps a client supplied type onto a fixed label set
func inboundLabel(msgType string) string {
	if msgType == "ping" {
		return msgType
	}
	return "unknown"
}

func (h *Hub) record(direction, msgType string) {
	if h.recorder != nil {
		h.recorder.RecordWSMessage(direction, msgType)
	}
}

func errorFrame(msg string) map[string]interface{} {
	return map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	}
}
