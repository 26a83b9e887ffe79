package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono/pkg/types"
)

// Hub tracks live WebSocket clients and closes them on shutdown. Routing
// decisions live in the presence router; the hub only owns connections.
type Hub struct {
	clients    map[domain.ConnectionID]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger

	// frames dropped by clients that have already left
	retiredDropped atomic.Uint64
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[domain.ConnectionID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down", "clients", h.ClientCount())
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		h.retiredDropped.Add(client.Dropped())
		client.Close()
	}
	h.clients = make(map[domain.ConnectionID]*Client)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID()] = client
	h.logger.Debug("Client registered", "clientID", client.ID())
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID()]; ok {
		delete(h.clients, client.ID())
		h.retiredDropped.Add(client.Dropped())
		h.logger.Debug("Client unregistered", "clientID", client.ID(), "dropped", client.Dropped())
	}
}

// Register adds a client to the hub. A client registered after shutdown
// is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedFrames returns the frames dropped on full send queues, across
// live and departed clients.
func (h *Hub) DroppedFrames() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := h.retiredDropped.Load()
	for _, client := range h.clients {
		total += client.Dropped()
	}
	return total
}
