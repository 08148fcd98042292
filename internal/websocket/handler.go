package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/szooyang/ai-project01/internal/config"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/pkg/contracts/events"
)

// Handler upgrades GET /ws. Every connection opens its own session, which
// is closed again when the connection ends.
type Handler struct {
	upgrader     websocket.Upgrader
	hub          *Hub
	sessions     SessionStore
	dispatcher   *Dispatcher
	clientOpts   ClientOptions
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHandler creates the upgrade handler. allowedOrigins lists the origins
// a browser may connect from; "*" allows any, and an empty list allows
// same-host requests only.
func NewHandler(hub *Hub, sessions SessionStore, dispatcher *Dispatcher, cfg config.WebSocketConfig, allowedOrigins []string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Handler {
	logger = infrastructure.WithComponent(logger, "websocket.handler")

	h := &Handler{
		hub:          hub,
		sessions:     sessions,
		dispatcher:   dispatcher,
		clientOpts:   ClientOptions{PongWait: cfg.PongWait, PingPeriod: cfg.PingPeriod},
		errorHandler: errorHandler,
		logger:       logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			allowed := checkOrigin(r, allowedOrigins)
			if !allowed {
				logger.WarnContext(r.Context(), "WebSocket origin rejected",
					slog.String("origin", r.Header.Get("Origin")))
			}
			return allowed
		},
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	traceID := infrastructure.GetTraceID(ctx)

	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("user_agent", r.UserAgent()))

	if !websocket.IsWebSocketUpgrade(r) {
		h.errorHandler.HandleError(w, r, apierrors.ErrWebSocketUpgrade)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		h.logger.ErrorContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sess := h.sessions.Open(ctx)
	client := NewClient(h.hub, conn, h.dispatcher, sess, traceID, h.clientOpts, h.logger)
	if !h.hub.Register(client) {
		h.sessions.Close(ctx, sess.ID)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	hello := newReply(sess, "", events.MessageTypeConnect, events.ConnectData{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
	})
	hello.TraceID = traceID
	client.enqueue(hello)

	go client.WritePump()
	go func() {
		client.ReadPump()
		h.sessions.Close(client.context(), sess.ID)
	}()
}

// ClientCount returns the number of open connections.
func (h *Handler) ClientCount() int {
	return h.hub.ClientCount()
}

func checkOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
