// Package realtime maintains the single websocket connection a session
// detail view holds, translating broadcast envelopes into typed callbacks.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/models"
)

const (
	// DefaultMaxReconnects caps automatic redials before the terminal error
	DefaultMaxReconnects = 5
	// reconnectBaseDelay is multiplied by the attempt number, not doubled
	reconnectBaseDelay = time.Second
)

// Handlers are the optional callback slots invoked from the read loop.
// Nil slots are skipped.
type Handlers struct {
	OnCommentCreated func(models.Comment)
	OnCommentUpdated func(models.Comment)
	OnCommentDeleted func(commentID string)
	OnTyping         func(TypingPayload)
	OnStoppedTyping  func(TypingPayload)
	OnOnlineUsers    func([]models.UserRef)
	OnConnect        func()
	OnDisconnect     func()
	OnError          func(error)
}

// Config describes one logical subscription to a session's event channel
type Config struct {
	// URL is the websocket endpoint, e.g. ws://host/ws
	URL string
	// SessionID scopes the room this connection joins
	SessionID string
	// Token authenticates the connection
	Token string
	// User identifies this client in the join message and presence lists
	User models.UserRef
	// Handlers receive translated events
	Handlers Handlers
	// MaxReconnects caps redial attempts; 0 means DefaultMaxReconnects
	MaxReconnects int
}

// Client owns at most one active connection per session view. Create on
// mount, Disconnect on unmount.
type Client struct {
	cfg Config

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	attempts  int
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a realtime client for one session
func New(cfg Config) *Client {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = DefaultMaxReconnects
	}
	return &Client{cfg: cfg, done: make(chan struct{})}
}

// Connect dials the transport, joins the session room and starts the read
// loop. It returns once connected or with the dial error.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.attempts = 0
	c.mu.Unlock()

	if err := c.join(conn); err != nil {
		c.mu.Lock()
		c.conn = nil
		c.connected = false
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("failed to join session room: %w", err)
	}

	if c.cfg.Handlers.OnConnect != nil {
		c.cfg.Handlers.OnConnect()
	}
	zap.S().Debugw("realtime connected", "sessionId", c.cfg.SessionID)

	go c.readLoop(ctx, conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime transport: %w", err)
	}
	return conn, nil
}

func (c *Client) join(conn *websocket.Conn) error {
	payload, err := json.Marshal(JoinPayload{SessionID: c.cfg.SessionID, User: c.cfg.User})
	if err != nil {
		return err
	}
	return conn.WriteJSON(Envelope{Event: EventSessionJoin, Data: payload})
}

// Emit sends an envelope to the server. Returns an error if not connected.
func (c *Client) Emit(event string, data interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(Envelope{Event: event, Data: payload})
}

// SendTyping announces that this user is typing in the session thread
func (c *Client) SendTyping() error {
	return c.Emit(EventTyping, TypingPayload{UserID: c.cfg.User.ID, DisplayName: c.cfg.User.DisplayName})
}

// SendStoppedTyping clears this user's typing state
func (c *Client) SendStoppedTyping() error {
	return c.Emit(EventStoppedTyping, TypingPayload{UserID: c.cfg.User.ID, DisplayName: c.cfg.User.DisplayName})
}

// Connected reports whether the transport is currently up
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Disconnect closes the connection and stops reconnecting. Idempotent:
// disconnecting an already-closed client is a no-op.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
		if c.cfg.Handlers.OnDisconnect != nil {
			c.cfg.Handlers.OnDisconnect()
		}
		zap.S().Debugw("realtime disconnected", "sessionId", c.cfg.SessionID)
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.mu.Lock()
			c.connected = false
			c.conn = nil
			c.mu.Unlock()
			if c.cfg.Handlers.OnDisconnect != nil {
				c.cfg.Handlers.OnDisconnect()
			}
			c.reconnect(ctx)
			return
		}
		c.dispatch(env)
	}
}

// reconnect redials with a fixed delay multiplied by the attempt number,
// up to the configured cap, then surfaces a terminal error
func (c *Client) reconnect(ctx context.Context) {
	for {
		c.mu.Lock()
		c.attempts++
		attempt := c.attempts
		max := c.cfg.MaxReconnects
		c.mu.Unlock()

		if attempt > max {
			err := fmt.Errorf("realtime: connection lost after %d reconnect attempts", max)
			zap.S().Errorw("realtime reconnect exhausted", "sessionId", c.cfg.SessionID, "attempts", max)
			if c.cfg.Handlers.OnError != nil {
				c.cfg.Handlers.OnError(err)
			}
			return
		}

		delay := time.Duration(attempt) * reconnectBaseDelay
		zap.S().Debugw("realtime reconnecting", "sessionId", c.cfg.SessionID, "attempt", attempt, "delay", delay)
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := c.Connect(ctx); err == nil {
			return
		}
	}
}

func (c *Client) dispatch(env Envelope) {
	h := c.cfg.Handlers
	switch env.Event {
	case EventCommentCreated:
		var comment models.Comment
		if err := json.Unmarshal(env.Data, &comment); err != nil {
			zap.S().Debugw("realtime: bad comment.created payload", "error", err)
			return
		}
		if h.OnCommentCreated != nil {
			h.OnCommentCreated(comment)
		}
	case EventCommentUpdated:
		var comment models.Comment
		if err := json.Unmarshal(env.Data, &comment); err != nil {
			zap.S().Debugw("realtime: bad comment.updated payload", "error", err)
			return
		}
		if h.OnCommentUpdated != nil {
			h.OnCommentUpdated(comment)
		}
	case EventCommentDeleted:
		var payload DeletePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			zap.S().Debugw("realtime: bad comment.deleted payload", "error", err)
			return
		}
		if h.OnCommentDeleted != nil {
			h.OnCommentDeleted(payload.CommentID)
		}
	case EventTyping:
		var payload TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if h.OnTyping != nil {
			h.OnTyping(payload)
		}
	case EventStoppedTyping:
		var payload TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if h.OnStoppedTyping != nil {
			h.OnStoppedTyping(payload)
		}
	case EventOnlineUsers:
		var payload OnlineUsersPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		if h.OnOnlineUsers != nil {
			h.OnOnlineUsers(payload.Users)
		}
	default:
		// unrecognized event names are not an error
	}
}
