package api

import (
	"encoding/json"
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/editor"
	"github.com/example/presence-router-demo/modules/fanout"
	"github.com/example/presence-router-demo/modules/stats"
)

// Inbound event names.
const (
	inUserConnected     = "user_connected"
	inMessage           = "message"
	inPrivateMessage    = "private_message"
	inEditorUpdate      = "editor_update"
	inEditorSyncRequest = "editor_sync_request"
	inCursorPosition    = "cursor_position"
)

// InboundFrame is a client event: {"type": "...", "payload": {...}}.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// UserConnectedPayload identifies a connection.
type UserConnectedPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// MessagePayload is a public chat message or /room command.
type MessagePayload struct {
	Text string `json:"text"`
}

// PrivateMessagePayload is addressed to one user.
type PrivateMessagePayload struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// CursorPositionPayload is a caret position in the room document.
type CursorPositionPayload struct {
	Position int `json:"position"`
}

// EditorUpdatePayload is a document delta.
type EditorUpdatePayload = editor.Delta

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

// RoomUsersResponse is the API response for a room's members.
type RoomUsersResponse struct {
	Room  string          `json:"room"`
	Users []domain.Member `json:"users"`
}

// DocumentResponse is the API response for a room document.
type DocumentResponse struct {
	Room      string `json:"room"`
	Content   string `json:"content"`
	Length    int    `json:"length"`
	MaxLength int    `json:"max_length"`
}

// StatusResponse is the API response for GET /status.
type StatusResponse struct {
	Status         string            `json:"status"`
	Uptime         string            `json:"uptime"`
	Timestamp      time.Time         `json:"timestamp"`
	InstanceID     string            `json:"instance_id"`
	FanoutMode     string            `json:"fanout_mode"`
	FanoutDegraded bool              `json:"fanout_degraded"`
	Connections    int               `json:"connections"`
	Identified     int               `json:"identified"`
	Rooms          []domain.RoomInfo `json:"rooms"`
	Activity       []stats.RoomStats `json:"activity"`
	Fanout         fanout.Stats      `json:"fanout"`
}
