package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/presence-router-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the Router and exposes it to the rest of the application.
// Routed activity is re-published on the in-process event bus.
type Module struct {
	router   *Router
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Observer                   = (*Module)(nil)
)

// NewModule creates a presence module around router and registers itself
// as the router's observer.
func NewModule(router *Router, logger types.Logger) *Module {
	m := &Module{
		router: router,
		logger: logger,
	}
	router.SetObserver(m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessageSentV1.ToBase(),
		events.DocumentEditedV1.ToBase(),
	}
}

// RegisterServices registers the read-only room queries.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetRoomUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleGetRoomUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoomUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetDocument,
		json.Unmarshal,
		json.Marshal,
		m.handleGetDocument,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetDocument, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceListRooms, ServiceGetRoomUsers, ServiceGetDocument})
	return nil
}

// Start logs the configured rooms.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Presence module started", "rooms", m.router.Directory().Rooms())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Presence module stopped",
		"connections", m.router.Registry().Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	reg := m.router.Registry()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": reg.Count(),
			"identified":  reg.IdentifiedCount(),
			"rooms":       m.router.Directory().List(),
		},
	}
}

// Router returns the message router.
func (m *Module) Router() *Router {
	return m.router
}

// Observe publishes routed activity as domain events.
func (m *Module) Observe(a Activity) {
	if m.eventBus == nil {
		return
	}

	var err error
	switch a.Kind {
	case ActivityJoined:
		err = events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
			Room:      a.Room,
			Username:  a.Username,
			Timestamp: a.At,
		}, nil)
	case ActivityLeft:
		err = events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
			Room:      a.Room,
			Username:  a.Username,
			Timestamp: a.At,
		}, nil)
	case ActivityMessage, ActivityPrivateMessage:
		err = events.MessageSentV1.Publish(m.eventBus, events.MessageSentEvent{
			Room:      a.Room,
			Username:  a.Username,
			Private:   a.Kind == ActivityPrivateMessage,
			Timestamp: a.At,
		}, nil)
	case ActivityEdit:
		err = events.DocumentEditedV1.Publish(m.eventBus, events.DocumentEditedEvent{
			Room:      a.Room,
			Username:  a.Username,
			Timestamp: a.At,
		}, nil)
	}
	if err != nil {
		m.logger.Warn("Failed to publish activity event", "kind", a.Kind, "room", a.Room, "error", err)
	}
}
