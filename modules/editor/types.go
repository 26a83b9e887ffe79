package editor

import (
	"errors"
	"html"
)

// DefaultMaxLength is the largest document, in UTF-16 code units, a room may hold.
const DefaultMaxLength = 50000

// DeltaType names the kind of edit a delta performs.
type DeltaType string

// Supported delta types.
const (
	DeltaInsert  DeltaType = "insert"
	DeltaDelete  DeltaType = "delete"
	DeltaReplace DeltaType = "replace"
)

// Valid reports whether t is a supported delta type.
func (t DeltaType) Valid() bool {
	switch t {
	case DeltaInsert, DeltaDelete, DeltaReplace:
		return true
	}
	return false
}

// Delta is a position-based edit against a room document.
// Position and DeletedLength count UTF-16 code units.
type Delta struct {
	Type          DeltaType `json:"type"`
	Position      int       `json:"position"`
	DeletedLength int       `json:"deletedLength"`
	Text          string    `json:"text"`
}

// Validation errors
var (
	ErrInvalidDelta     = errors.New("invalid delta")
	ErrDocumentTooLarge = errors.New("document exceeds maximum length")
)

// Sanitize escapes markup in user supplied text.
func Sanitize(text string) string {
	return html.EscapeString(text)
}
