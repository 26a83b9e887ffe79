package presence

import (
	"errors"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/editor"
)

// Validation constants
const (
	MinUsernameLength = 2
	MaxUsernameLength = 20
	MaxMessageLength  = 1000

	// RoomCommandPrefix turns a chat message into a room switch request.
	RoomCommandPrefix = "/room "
)

// Outbound event names.
const (
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUsers          = "users"
	EventMessage        = "message"
	EventPrivateMessage = "private_message"
	EventRoomChanged    = "room_changed"
	EventError          = "error"
	EventAvailableRooms = "available_rooms"
	EventEditorSync     = "editor_sync"
	EventEditorUpdate   = "editor_update"
	EventCursorPosition = "cursor_position"
)

// Validation and state errors
var (
	ErrUsernameEmpty     = errors.New("username cannot be empty")
	ErrUsernameTooShort  = errors.New("username must be at least 2 characters")
	ErrUsernameTooLong   = errors.New("username exceeds maximum length")
	ErrUsernameInvalid   = errors.New("username contains invalid characters")
	ErrMessageEmpty      = errors.New("message content cannot be empty")
	ErrMessageTooLong    = errors.New("message exceeds maximum length")
	ErrMessageInvalid    = errors.New("message contains invalid characters")
	ErrInvalidPosition   = errors.New("cursor position cannot be negative")
	ErrNotIdentified     = errors.New("connection has not joined yet")
	ErrAlreadyIdentified = errors.New("connection already joined")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrConnectionExists  = errors.New("connection already registered")
	ErrNotMember         = errors.New("user is not a member of the room")
)

// Conn is the transport-side handle of one client connection.
// Send must not block; implementations queue the event.
type Conn interface {
	ID() domain.ConnectionID
	Send(event string, payload any) error
}

// State is the routing state of a connection.
type State int

// Connection states.
const (
	StateUnidentified State = iota
	StateIdentified
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUnidentified:
		return "unidentified"
	case StateIdentified:
		return "identified"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// MessagePayload is delivered for public and private chat messages.
type MessagePayload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Color    string `json:"color"`
}

// PrivatePayload is relayed between instances for private messages.
type PrivatePayload struct {
	MessagePayload
	Target string `json:"target"`
}

// RoomChangedPayload confirms a room switch to the requester.
type RoomChangedPayload struct {
	OldRoom string `json:"oldRoom"`
	NewRoom string `json:"newRoom"`
	Message string `json:"message"`
}

// ErrorPayload is sent to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// EditorSyncPayload carries a full room document.
type EditorSyncPayload struct {
	Content string `json:"content"`
}

// EditorUpdatePayload is an applied delta plus its author.
type EditorUpdatePayload struct {
	editor.Delta
	Username string `json:"username"`
	Color    string `json:"color"`
}

// CursorPayload relays a caret position.
type CursorPayload struct {
	Username string `json:"username"`
	Position int    `json:"position"`
	Color    string `json:"color"`
}

// ValidateUsername trims, escapes and validates a username. Length limits
// apply to the escaped form, which is what other clients receive.
func ValidateUsername(username string, maxLength int) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUsernameEmpty
	}
	if !utf8.ValidString(username) {
		return "", ErrUsernameInvalid
	}
	username = editor.Sanitize(username)
	if utf16Len(username) < MinUsernameLength {
		return "", ErrUsernameTooShort
	}
	if utf16Len(username) > maxLength {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// ValidateMessage validates chat text and returns it escaped.
func ValidateMessage(text string, maxLength int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrMessageEmpty
	}
	if !utf8.ValidString(text) {
		return "", ErrMessageInvalid
	}
	if utf16Len(text) > maxLength {
		return "", ErrMessageTooLong
	}
	return editor.Sanitize(text), nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// ErrorType maps an error to the tag carried by outbound error events.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRoom):
		return domain.ErrorTypeInvalidRoom
	case errors.Is(err, domain.ErrSameRoom):
		return domain.ErrorTypeSameRoom
	case errors.Is(err, domain.ErrUsernameTaken):
		return domain.ErrorTypeUsernameTaken
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.ErrorTypeUserNotFound
	case errors.Is(err, domain.ErrOutOfBounds):
		return domain.ErrorTypeOutOfBounds
	case errors.Is(err, ErrNotIdentified):
		return domain.ErrorTypeNotIdentified
	case errors.Is(err, ErrAlreadyIdentified):
		return domain.ErrorTypeAlreadyIdentified
	case errors.Is(err, ErrUsernameEmpty),
		errors.Is(err, ErrUsernameTooShort),
		errors.Is(err, ErrUsernameTooLong),
		errors.Is(err, ErrUsernameInvalid),
		errors.Is(err, ErrMessageEmpty),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrMessageInvalid),
		errors.Is(err, ErrInvalidPosition),
		errors.Is(err, editor.ErrInvalidDelta),
		errors.Is(err, editor.ErrDocumentTooLarge):
		return domain.ErrorTypeValidation
	}
	return domain.ErrorTypeInternal
}
