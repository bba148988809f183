package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 64 * 1024
	sendBufferSize  = 64
)

// Client is one ESTABLISHED connection with a bound identity. The identity is
// immutable for the connection's life; a connection that fails authentication
// is never attached as a Client.
type Client struct {
	handle ConnectionHandle
	userID uint
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	done   chan struct{}
}

func newClient(hub *Hub, userID uint, conn *websocket.Conn) *Client {
	return &Client{
		handle: ConnectionHandle(uuid.NewString()),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// UserID returns the identity bound at handshake time.
func (c *Client) UserID() uint {
	return c.userID
}

// Handle returns the connection's presence handle.
func (c *Client) Handle() ConnectionHandle {
	return c.handle
}

// deliver enqueues an event for this connection. The buffered channel keeps
// per-destination ordering; a full buffer means the client cannot keep up and
// the event is dropped for this connection only. A detached client accepts
// nothing.
func (c *Client) deliver(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		c.hub.log.Warn("client send buffer full, dropping event",
			zap.Uint("user_id", c.userID),
			zap.String("event_type", ev.Type))
		return false
	}
}

// readPump pumps inbound frames from the connection to the hub dispatcher.
// It also owns teardown: when the read side ends for any reason the client is
// detached and its presence handle released.
func (c *Client) readPump() {
	defer c.hub.detach(c)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("unexpected websocket close",
					zap.Uint("user_id", c.userID), zap.Error(err))
			}
			return
		}
		c.hub.dispatch(c, frame)
	}
}

// writePump pumps events from the send channel to the connection and keeps
// the protocol-level heartbeat going. One writer per connection; gorilla
// forbids concurrent writers.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
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
