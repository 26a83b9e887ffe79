package editor

import (
	"fmt"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	domain "github.com/example/presence-router-demo/domain/presence"
)

// Applier holds one shared text buffer per room and applies deltas to it
// strictly in the order they arrive.
type Applier struct {
	mu        sync.Mutex
	maxLength int
	buffers   map[string][]uint16
}

// NewApplier creates an Applier whose documents may not exceed maxLength
// UTF-16 code units. A non-positive maxLength selects DefaultMaxLength.
func NewApplier(maxLength int) *Applier {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Applier{
		maxLength: maxLength,
		buffers:   make(map[string][]uint16),
	}
}

// Apply validates d against the current document of room and splices it in.
// On error the document is left untouched. The returned delta carries the
// sanitized text that was actually applied.
func (a *Applier) Apply(room string, d Delta) (Delta, error) {
	if !d.Type.Valid() {
		return Delta{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDelta, d.Type)
	}
	if !utf8.ValidString(d.Text) {
		return Delta{}, fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidDelta)
	}
	if d.Position < 0 || d.DeletedLength < 0 {
		return Delta{}, fmt.Errorf("%w: negative position or length", domain.ErrOutOfBounds)
	}

	d.Text = Sanitize(d.Text)
	inserted := utf16.Encode([]rune(d.Text))

	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.buffers[room]
	if d.Position > len(buf) || d.DeletedLength > len(buf)-d.Position {
		return Delta{}, fmt.Errorf("%w: position %d + length %d exceeds %d",
			domain.ErrOutOfBounds, d.Position, d.DeletedLength, len(buf))
	}

	newLen := len(buf) - d.DeletedLength + len(inserted)
	if newLen > a.maxLength {
		return Delta{}, fmt.Errorf("%w: %d > %d", ErrDocumentTooLarge, newLen, a.maxLength)
	}

	next := make([]uint16, 0, newLen)
	next = append(next, buf[:d.Position]...)
	next = append(next, inserted...)
	next = append(next, buf[d.Position+d.DeletedLength:]...)
	a.buffers[room] = next

	return d, nil
}

// Content returns the current document of room.
func (a *Applier) Content(room string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(utf16.Decode(a.buffers[room]))
}

// Length returns the document length of room in UTF-16 code units.
func (a *Applier) Length(room string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers[room])
}

// MaxLength returns the configured document limit.
func (a *Applier) MaxLength() int {
	return a.maxLength
}
