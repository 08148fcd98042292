package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/szooyang/ai-project01/internal/infrastructure"
)

// Hub maintains the set of connected clients so they can be counted and
// closed together on shutdown. Clients never talk to each other.
type Hub struct {
	// Registered clients
	clients map[*Client]struct{}

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.RidershipMetrics

	// Control
	quit     chan struct{}
	stopped  chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub instance. metrics may be nil.
func NewHub(metrics *infrastructure.RidershipMetrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start runs the hub loop in a goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.clients = make(map[*Client]struct{})
			h.mu.Unlock()

			for _, client := range clients {
				client.close()
			}
			h.logger.Info("Hub shutting down", slog.Int("closed_clients", len(clients)))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.TrackWebSocketConnection(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("session_id", client.session.ID),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			count := len(h.clients)
			h.mu.Unlock()
			if !ok {
				continue
			}

			ctx := client.context()
			h.metrics.TrackWebSocketConnection(ctx, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client. It never blocks after Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every client connection and ends the loop. It waits for the
// loop to exit when the hub was started, bounded by ctx.
func (h *Hub) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.quit) })

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return nil
	}

	select {
	case <-h.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
