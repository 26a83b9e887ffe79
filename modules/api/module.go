package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/presence-router-demo/modules/broadcast"
	"github.com/example/presence-router-demo/modules/fanout"
	"github.com/example/presence-router-demo/modules/presence"
	"github.com/example/presence-router-demo/modules/stats"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config configures the HTTP and WebSocket server.
type Config struct {
	Port          int
	CORSOrigins   string
	SendQueueSize int
	Limits        Limits
}

// APIModule is the HTTP API module with WebSocket support.
type APIModule struct {
	app       *fiber.App
	cfg       Config
	presence  presence.PresencePort
	router    *presence.Router
	hub       *broadcast.Hub
	stats     *stats.Store
	bus       *fanout.Bus
	startedAt time.Time
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg Config, logger types.Logger) *APIModule {
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "*"
	}
	return &APIModule{
		cfg:       cfg,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"presence"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "presence":
		m.presence = presence.NewPresenceAdapter(container)
	}
}

// SetRouter sets the router driven by WebSocket sessions (called from main.go).
func (m *APIModule) SetRouter(router *presence.Router) {
	m.router = router
}

// SetHub sets the broadcast hub (called from main.go).
func (m *APIModule) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// SetStats sets the activity store reported by /status.
func (m *APIModule) SetStats(store *stats.Store) {
	m.stats = store
}

// SetBus sets the fanout bus reported by /status.
func (m *APIModule) SetBus(bus *fanout.Bus) {
	m.bus = bus
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.presence == nil {
		return fmt.Errorf("presence adapter dependency not set")
	}
	if m.router == nil {
		return fmt.Errorf("router dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}

	m.app = m.newApp()

	// Start server in goroutine
	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.cfg.Port)); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.cfg.Port)
	return nil
}

func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Presence Router Demo",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Next:   websocket.IsWebSocketUpgrade,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.CORSOrigins,
	}))

	m.setupRoutes(app)
	return app
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.cfg.Port,
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
