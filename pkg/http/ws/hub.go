package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

// Error is a WebSocket-level error with a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Hub manages WebSocket connections for fan-out broadcasts. Connections are
// anonymous spectators; there is no per-user targeting.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection
	logger      zerolog.Logger
}

// NewHub creates a connection hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		logger:      logger,
	}
}

// Register adds a connection under a fresh identifier and returns it.
func (h *Hub) Register(conn *Connection) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.connections[id] = conn
	h.mu.Unlock()
	h.logger.Debug().Str("conn_id", id.String()).Msg("connection registered")
	return id
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	conn, exists := h.connections[id]
	delete(h.connections, id)
	h.mu.Unlock()

	if exists {
		conn.Close()
		h.logger.Debug().Str("conn_id", id.String()).Msg("connection unregistered")
	}
}

// BroadcastAll sends a message to every connected client. Slow clients whose
// queues are full miss the message; the next broadcast supersedes it anyway.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.connections {
		if err := conn.Send(msg); err != nil {
			h.logger.Debug().Err(err).Str("conn_id", id.String()).Msg("broadcast send skipped")
		}
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Connection wraps a WebSocket connection with a buffered send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a raw WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery without blocking.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Debug().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump consumes inbound messages, answering pings, until the peer goes
// away. Everything else is ignored; the leaderboard socket is one-way.
func (c *Connection) ReadPump() {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}
		if msg.Type == TypePing {
			_ = c.Send(Message{Type: TypePong})
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}
