package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound replies buffered per client
	sendBufferSize = 16
)

// Client is one websocket connection and the session it owns.
type Client struct {
	hub        *Hub
	conn       Connection
	dispatcher *Dispatcher
	session    *services.Session

	// Buffered channel of outbound messages
	send chan []byte

	// Closed once when the client shuts down
	done      chan struct{}
	closeOnce sync.Once

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time
	pongWait    time.Duration
	pingPeriod  time.Duration

	logger *slog.Logger

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

// ClientOptions tunes keepalive timing.
type ClientOptions struct {
	PongWait   time.Duration
	PingPeriod time.Duration
}

// NewClient creates a client for conn bound to sess.
func NewClient(hub *Hub, conn Connection, dispatcher *Dispatcher, sess *services.Session, traceID string, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}

	id := uuid.New().String()
	remoteAddr := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remoteAddr = addr.String()
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		dispatcher:  dispatcher,
		session:     sess,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		id:          id,
		traceID:     traceID,
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		pongWait:    opts.PongWait,
		pingPeriod:  opts.PingPeriod,
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
			slog.String("session_id", sess.ID),
		),
	}
}

// ID returns the client id.
func (c *Client) ID() string { return c.id }

// Session returns the session the connection owns.
func (c *Client) Session() *services.Session { return c.session }

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// close stops the write pump, which sends a close frame and closes the
// connection; the read pump then fails and exits.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue hands msg to the write pump. It reports false once the client
// is closed.
func (c *Client) enqueue(msg *events.WebSocketMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.context(), "Failed to encode websocket message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return true
	}
	select {
	case c.send <- data:
		c.dispatcher.metrics.RecordWebSocketMessage(c.context(), "out", string(msg.Type))
		return true
	case <-c.done:
		return false
	}
}

// ReadPump reads requests, answers each in order and queues the replies.
// It runs until the peer goes away or the client is closed.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
		c.close()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(c.pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived.Add(1)
		// Any traffic proves the peer is alive.
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		reply := c.dispatcher.Handle(c.context(), c.session, message)
		if reply == nil {
			continue
		}
		reply.TraceID = c.traceID
		if !c.enqueue(reply) {
			return
		}
	}
}

// WritePump writes queued replies and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				c.close()
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				c.close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
