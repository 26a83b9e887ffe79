package main

import (
	"context"
	"log"
	"os"

	"github.com/example/presence-router-demo/config"
	"github.com/example/presence-router-demo/modules/api"
	"github.com/example/presence-router-demo/modules/broadcast"
	"github.com/example/presence-router-demo/modules/fanout"
	"github.com/example/presence-router-demo/modules/presence"
	"github.com/example/presence-router-demo/modules/stats"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Presence Router Demo - Fiber WebSocket + Cross-Instance Fanout ===")

	cfg, err := config.Resolve()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	transport, err := fanout.NewTransport(cfg.Fanout.Driver, cfg.Fanout.RedisAddr, cfg.Fanout.NATSURL)
	if err != nil {
		log.Fatalf("Failed to create fanout transport: %v", err)
	}
	bus := fanout.NewBus(fanout.Config{
		Topic:          cfg.Fanout.Topic,
		QueueSize:      cfg.Fanout.QueueSize,
		PublishTimeout: cfg.Fanout.PublishTimeout,
	}, logger.WithModule("fanout"))

	router := presence.NewRouter(presence.Config{
		Rooms:             cfg.Rooms,
		Palette:           cfg.Palette,
		MaxUsernameLength: cfg.Limits.MaxUsernameLength,
		MaxMessageLength:  cfg.Limits.MaxMessageLength,
		MaxDocumentLength: cfg.Limits.MaxDocumentLength,
	}, logger.WithModule("presence"))

	// Local events go out through the bus; envelopes from other instances
	// come back in through the router's delivery-only path.
	router.SetPublisher(bus)
	bus.SetHandler(router.DeliverRemote)

	// Create modules
	presenceModule := presence.NewModule(router, logger.WithModule("presence"))
	statsModule := stats.NewModule(logger.WithModule("stats"))
	fanoutModule := fanout.NewModule(bus, transport, logger.WithModule("fanout"))
	broadcastModule := broadcast.NewModule(logger.WithModule("broadcast"))
	apiModule := api.NewModule(api.Config{
		Port:          cfg.Server.Port,
		CORSOrigins:   cfg.Server.CORSOrigins,
		SendQueueSize: cfg.Server.SendQueueSize,
		Limits: api.Limits{
			General:        cfg.Limits.EventsPerSecond,
			Editor:         cfg.Limits.EditorPerSecond,
			Cursor:         cfg.Limits.CursorPerSecond,
			AbuseThreshold: cfg.Limits.AbuseThreshold,
			AbuseWindow:    cfg.Limits.AbuseWindow,
		},
	}, logger.WithModule("api"))

	// These are not exposed via ServiceContainer, so inject them manually.
	apiModule.SetRouter(router)
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetStats(statsModule.Store())
	apiModule.SetBus(bus)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - presence: Router owner (ServiceProviderModule + EventEmitterModule)
	// - stats: Event consumer counting room activity
	// - fanout: Cross-instance bus (Redis or NATS pub/sub)
	// - broadcast: WebSocket client hub
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on presence)
	app.Register(presenceModule)
	app.Register(statsModule)
	app.Register(fanoutModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg, bus)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config, bus *fanout.Bus) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Printf("  - Fanout: %s (instance %s, topic %s)", bus.Mode(), bus.InstanceID(), bus.Topic())
	log.Printf("  - Rooms: %v", cfg.Rooms)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Server.Port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  GET    /status                          - Connections, rooms, activity, bus stats")
	log.Println("  GET    /api/v1/rooms                    - List rooms with member counts")
	log.Println("  GET    /api/v1/rooms/:name/users        - Room member snapshot")
	log.Println("  GET    /api/v1/rooms/:name/document     - Shared room document")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%d/ws):", cfg.Server.Port)
	log.Println("  Frames: {\"type\": \"...\", \"payload\": {...}}")
	log.Println("  Inbound: user_connected, message, private_message, editor_update,")
	log.Println("           editor_sync_request, cursor_position")
	log.Println("  Switch rooms with: {\"type\":\"message\",\"payload\":{\"text\":\"/room tech\"}}")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
