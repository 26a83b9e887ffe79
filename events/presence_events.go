package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserJoinedEvent is emitted when a user enters a room, either on first
// identification or as the second half of a room switch.
type UserJoinedEvent struct {
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a user leaves a room.
type UserLeftEvent struct {
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageSentEvent is emitted for every delivered public or private message.
type MessageSentEvent struct {
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Private   bool      `json:"private"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentEditedEvent is emitted when a delta is applied to a room document.
type DocumentEditedEvent struct {
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the presence domain.
var (
	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"presence",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"presence",
		"UserLeft",
		"v1",
	)

	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"presence",
		"MessageSent",
		"v1",
	)

	DocumentEditedV1 = helper.EventDefinition[DocumentEditedEvent](
		"presence",
		"DocumentEdited",
		"v1",
	)
)
