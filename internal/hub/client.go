package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/metrics"
	"github.com/Prag-18/Reviva/pkg/log"
)

// Client is one live chat channel owned by a single identity.
type Client struct {
	ID     string
	UserID string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	config config.WebSocketConfig

	mu     sync.Mutex
	closed bool
}

func NewClient(userID string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	size := cfg.SendBuffer
	if size <= 0 {
		size = 256
	}
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, size),
		config: cfg,
	}
}

// ReadPump feeds inbound frames to handler one at a time until the
// connection fails. The client is unregistered exactly once on exit,
// including when handler panics.
func (c *Client) ReadPump(ctx context.Context, handler func(context.Context, *Client, []byte)) {
	defer func() {
		if r := recover(); r != nil {
			l := log.Ctx(ctx)
			l.Error().Interface("panic", r).Msg("chat channel handler panicked")
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l := log.Ctx(ctx)
				l.Warn().Err(err).Msg("websocket read error")
			}
			break
		}

		handler(ctx, c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues evt on this channel only. It reports whether the event
// was accepted.
func (c *Client) SendEvent(evt domain.OutboundEvent) bool {
	data, err := json.Marshal(evt)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldEventType, evt.EventType()).Msg("failed to marshal outbound event")
		return false
	}
	return c.trySend(data)
}

// trySend enqueues without blocking. A full or closed queue rejects the frame.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		metrics.OutboundDropped.Inc()
		return false
	}

	select {
	case c.Send <- data:
		metrics.OutboundQueued.Inc()
		return true
	default:
		metrics.OutboundDropped.Inc()
		return false
	}
}

// close closes the outbound queue once. It reports whether this call closed it.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	close(c.Send)
	return true
}
