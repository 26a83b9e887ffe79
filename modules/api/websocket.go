package api

import (
	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	id := domain.ConnectionID(uuid.New().String())
	client := broadcast.NewClient(id, c, m.cfg.SendQueueSize, m.logger)

	if err := m.router.Connect(client); err != nil {
		m.logger.Error("Failed to register connection", "connectionID", id, "error", err)
		return
	}
	m.hub.Register(client)
	go client.WritePump()

	defer func() {
		if err := m.router.Disconnect(id); err != nil {
			m.logger.Warn("Disconnect failed", "connectionID", id, "error", err)
		}
		m.hub.Unregister(client)
		client.Close()
		client.Wait()
		m.logger.Info("WebSocket client disconnected", "connectionID", id)
	}()

	m.logger.Info("WebSocket client connected", "connectionID", id, "remote", c.RemoteAddr().String())

	s := newSession(client, m.router, m.cfg.Limits, m.logger)

	// Message loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("Client closed connection", "connectionID", id)
			} else {
				m.logger.Debug("Read error", "connectionID", id, "error", err)
			}
			return
		}
		if !s.handle(data) {
			return
		}
	}
}
