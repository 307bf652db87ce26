// internal/app/system/realtime/client.go
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Client is one websocket connection.
type Client struct {
	Info tenant.Info

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// handlers bounds the events served at once for this connection.
	handlers *errgroup.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, info tenant.Info) *Client {
	ctx, cancel := context.WithCancel(h.ctx)
	handlers := new(errgroup.Group)
	handlers.SetLimit(h.inFlight)
	return &Client{
		Info:     info,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.sendBuf),
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// close stops accepting outbound messages. The write pump then sends a
// close frame and drops the connection.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.send)
}

// enqueue queues msg without blocking. It reports whether msg was queued.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.hub.log.Warn("realtime send buffer full; dropping message",
			zap.String("tenant", c.Info.TenantID),
			zap.String("user", c.Info.UserID))
		return false
	}
}

func (c *Client) reply(env Envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		c.hub.log.Error("realtime reply marshal failed",
			zap.String("event", env.Event),
			zap.Error(err))
		msg, _ = json.Marshal(Envelope{
			Event:     env.Event,
			RequestID: env.RequestID,
			Data:      Reply{Error: "internal error", Code: CodeInternal},
		})
	}
	c.enqueue(msg)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime connection closed",
					zap.String("tenant", c.Info.TenantID),
					zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			c.reply(Envelope{
				Event: "error",
				Data:  Reply{Error: "malformed message", Code: CodeBadRequest},
			})
			continue
		}

		// Go blocks while the connection is at its in-flight cap.
		c.handlers.Go(func() error {
			c.dispatch(msg)
			return nil
		})
	}
}

func (c *Client) dispatch(msg Message) {
	rep := c.hub.router.Serve(c.ctx, c.Info, msg)
	c.reply(Envelope{
		Event:     ResponseEvent(msg.Event),
		RequestID: msg.RequestID,
		Data:      rep,
	})
}

func (c *Client) writePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
