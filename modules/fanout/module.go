package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Supported transport drivers.
const (
	DriverRedis = "redis"
	DriverNATS  = "nats"
	DriverNone  = "none"
)

const connectTimeout = 5 * time.Second

// NewTransport builds the transport selected by driver. DriverNone returns a
// nil transport, which keeps the bus local-only.
func NewTransport(driver, redisAddr, natsURL string) (Transport, error) {
	switch driver {
	case DriverRedis:
		return NewRedisTransport(redisAddr), nil
	case DriverNATS:
		return NewNATSTransport(natsURL), nil
	case DriverNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown fanout driver %q", driver)
	}
}

// Module runs the fanout bus as part of the application lifecycle.
type Module struct {
	bus       *Bus
	transport Transport
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a fanout module. transport may be nil.
func NewModule(bus *Bus, transport Transport, logger types.Logger) *Module {
	return &Module{
		bus:       bus,
		transport: transport,
		logger:    logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "fanout"
}

// Start connects the bus. An unreachable broker is not fatal.
func (m *Module) Start(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := m.bus.Start(connectCtx, m.transport); err != nil {
		if errors.Is(err, domain.ErrChannelUnavailable) {
			return nil
		}
		return err
	}
	return nil
}

// Stop stops the bus.
func (m *Module) Stop(ctx context.Context) error {
	return m.bus.Stop(ctx)
}

// Health returns the health status. Local delivery keeps working without
// the broker, so degraded modes are reported but healthy.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	message := "operational"
	switch {
	case m.transport != nil && !m.bus.Connected():
		message = "degraded: local-only delivery"
	case m.bus.Degraded():
		message = "degraded: broker unreachable, cross-instance delivery failing"
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: message,
		Details: map[string]any{
			"mode":        m.bus.Mode(),
			"instance_id": m.bus.InstanceID(),
			"topic":       m.bus.Topic(),
			"degraded":    m.bus.Degraded(),
			"stats":       m.bus.Stats(),
		},
	}
}

// Bus returns the underlying bus.
func (m *Module) Bus() *Bus {
	return m.bus
}
