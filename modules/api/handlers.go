package api

import (
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/stats"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)
	app.Get("/status", m.statusHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")

	// Read-only room queries
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:name/users", m.getRoomUsers)
	api.Get("/rooms/:name/document", m.getDocument)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"module": "api",
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// statusHandler handles GET /status.
func (m *APIModule) statusHandler(c *fiber.Ctx) error {
	resp := StatusResponse{
		Status:     "ok",
		Uptime:     time.Since(m.startedAt).Round(time.Second).String(),
		Timestamp:  time.Now(),
		FanoutMode: "local-only",
		Rooms:      []domain.RoomInfo{},
		Activity:   []stats.RoomStats{},
	}
	if m.router != nil {
		reg := m.router.Registry()
		resp.Connections = reg.Count()
		resp.Identified = reg.IdentifiedCount()
		resp.Rooms = m.router.Directory().List()
	}
	if m.stats != nil {
		resp.Activity = m.stats.All()
	}
	if m.bus != nil {
		resp.InstanceID = m.bus.InstanceID()
		resp.FanoutMode = m.bus.Mode()
		resp.FanoutDegraded = m.bus.Degraded()
		resp.Fanout = m.bus.Stats()
	}
	return c.JSON(resp)
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.presence.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomListResponse{Rooms: rooms})
}

// getRoomUsers handles GET /api/v1/rooms/:name/users.
func (m *APIModule) getRoomUsers(c *fiber.Ctx) error {
	room := c.Params("name")

	users, exists, err := m.presence.GetRoomUsers(c.UserContext(), room)
	if err != nil {
		m.logger.Error("Failed to get room users", "room", room, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to get room users",
		})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   domain.ErrorTypeInvalidRoom,
			Message: "Room not found",
		})
	}
	return c.JSON(RoomUsersResponse{Room: room, Users: users})
}

// getDocument handles GET /api/v1/rooms/:name/document.
func (m *APIModule) getDocument(c *fiber.Ctx) error {
	room := c.Params("name")

	doc, err := m.presence.GetDocument(c.UserContext(), room)
	if err != nil {
		m.logger.Error("Failed to get document", "room", room, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to get document",
		})
	}
	if !doc.Exists {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   domain.ErrorTypeInvalidRoom,
			Message: "Room not found",
		})
	}
	return c.JSON(DocumentResponse{
		Room:      room,
		Content:   doc.Content,
		Length:    doc.Length,
		MaxLength: doc.MaxLength,
	})
}
