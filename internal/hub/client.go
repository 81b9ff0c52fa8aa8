package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client adapts one WebSocket connection to the Subscriber interface.
// Writes go through a bounded channel owned by writePump; Send never blocks
// on a slow connection.
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded connection. Call Start to begin pumping.
func NewClient(conn *websocket.Conn, h *Hub, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		hub:    h,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Start registers the client and launches its pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
	c.hub.Register(c)
}

// ID returns the client's registry key.
func (c *Client) ID() string { return c.id }

// Send enqueues a message without blocking. A full buffer evicts the
// oldest queued message so a lagging subscriber resumes at the freshest
// quote; only a closed client reports an error so the hub prunes it.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSubscriberClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
	}

	// Slow consumer: drop the oldest entry, never the incoming one.
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- data:
	default:
	}
	return nil
}

// Close marks the client dead and stops the write pump. Safe to call more
// than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound requests until the connection drops, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.HandleRequest(c, data)
	}
}

// writePump owns all writes to the connection, including keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
