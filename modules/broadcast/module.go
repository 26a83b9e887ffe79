package broadcast

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// BroadcastModule runs the client hub for the lifetime of the application.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule(logger types.Logger) *BroadcastModule {
	return &BroadcastModule{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start runs the hub loop until Stop.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Client hub running")
	return nil
}

// Stop closes every client and waits for the hub loop to exit.
func (m *BroadcastModule) Stop(_ context.Context) error {
	if m.cancelHub == nil {
		return nil
	}
	open := m.hub.ClientCount()
	m.cancelHub()
	m.hub.Wait()
	m.logger.Info("Client hub stopped",
		"closed_clients", open,
		"dropped_frames", m.hub.DroppedFrames())
	return nil
}

// Health reports live clients and frames lost to full send queues. Drops
// mean slow readers, not a broken hub, so the module stays healthy.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	dropped := m.hub.DroppedFrames()
	message := "operational"
	if dropped > 0 {
		message = "operational: slow clients dropping frames"
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: message,
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"dropped_frames":    dropped,
		},
	}
}

// GetHub returns the hub the API module registers clients with.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
