package stats

import (
	"context"
	"fmt"

	"github.com/example/presence-router-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module is an EventConsumerModule that counts presence activity per room.
type Module struct {
	store  *Store
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new stats module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		store:  NewStore(),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "stats"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Stats module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Stats module stopped", "uptime", m.store.Uptime().String())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"tracked_rooms": len(m.store.All()),
			"uptime":        m.store.Uptime().String(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.DocumentEditedV1, m.handleDocumentEdited, m,
	); err != nil {
		return fmt.Errorf("failed to register DocumentEdited consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"UserJoined", "UserLeft", "MessageSent", "DocumentEdited"})
	return nil
}

// Event handlers

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.store.RecordJoin(event.Room, event.Timestamp)
	m.logger.Debug("User joined", "room", event.Room, "username", event.Username)
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.store.RecordLeave(event.Room, event.Timestamp)
	m.logger.Debug("User left", "room", event.Room, "username", event.Username)
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.store.RecordMessage(event.Room, event.Private, event.Timestamp)
	return nil
}

func (m *Module) handleDocumentEdited(_ context.Context, event events.DocumentEditedEvent, _ *mono.Msg) error {
	m.store.RecordEdit(event.Room, event.Timestamp)
	return nil
}

// Store returns the stats store for the API module to read.
func (m *Module) Store() *Store {
	return m.store
}
