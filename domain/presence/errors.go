package presence

import "errors"

var (
	// ErrInvalidRoom indicates the room is not in the configured allow-list.
	ErrInvalidRoom = errors.New("invalid room")
	// ErrSameRoom indicates a switch to the room the user is already in.
	ErrSameRoom = errors.New("already in this room")
	// ErrUsernameTaken indicates another connection holds the username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound indicates a private message target is not connected.
	ErrUserNotFound = errors.New("user not found")
	// ErrOutOfBounds indicates a delta addresses text outside the buffer.
	ErrOutOfBounds = errors.New("delta out of bounds")
	// ErrChannelUnavailable indicates the cross-instance channel cannot be used.
	ErrChannelUnavailable = errors.New("fanout channel unavailable")
)

// Error type tags carried by outbound error events.
const (
	ErrorTypeInvalidRoom       = "invalid_room"
	ErrorTypeSameRoom          = "same_room"
	ErrorTypeUsernameTaken     = "username_taken"
	ErrorTypeUserNotFound      = "user_not_found"
	ErrorTypeOutOfBounds       = "out_of_bounds"
	ErrorTypeValidation        = "validation_error"
	ErrorTypeNotIdentified     = "not_identified"
	ErrorTypeAlreadyIdentified = "already_identified"
	ErrorTypeRateLimited       = "rate_limited"
	ErrorTypeInvalidPayload    = "invalid_payload"
	ErrorTypeInternal          = "internal_error"
)
