package presence

import (
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/editor"
	"github.com/example/presence-router-demo/modules/fanout"
	"github.com/go-monolith/mono/pkg/types"
)

// Publisher relays events to other instances. Publish must not block.
type Publisher interface {
	Publish(kind fanout.EnvelopeType, room string, payload any)
}

// ActivityKind classifies what happened in a room.
type ActivityKind string

// Activity kinds reported to the Observer.
const (
	ActivityJoined         ActivityKind = "joined"
	ActivityLeft           ActivityKind = "left"
	ActivityMessage        ActivityKind = "message"
	ActivityPrivateMessage ActivityKind = "private_message"
	ActivityEdit           ActivityKind = "edit"
)

// Activity is a routed event, reported after local delivery.
type Activity struct {
	Kind     ActivityKind
	Room     string
	Username string
	At       time.Time
}

// Observer is notified of routed activity outside the router lock.
type Observer interface {
	Observe(Activity)
}

// Config configures a Router.
type Config struct {
	Rooms             []string
	Palette           []string
	MaxUsernameLength int
	MaxMessageLength  int
	MaxDocumentLength int
	// Intn overrides the colour picker's random source.
	Intn func(n int) int
}

// Router drives every connection through UNIDENTIFIED, IDENTIFIED and
// DISCONNECTED and decides who receives each event. All state changes and
// delivery-set computations are serialized by one mutex; Conn.Send only
// queues, so delivering under the lock keeps per-room order.
type Router struct {
	mu sync.Mutex

	registry  *ConnectionRegistry
	directory *RoomDirectory
	documents *editor.Applier

	maxUsernameLength int
	maxMessageLength  int

	publisher Publisher
	observer  Observer
	logger    types.Logger
}

// NewRouter creates a router with its own registry, directory and documents.
func NewRouter(cfg Config, logger types.Logger) *Router {
	if cfg.MaxUsernameLength <= 0 {
		cfg.MaxUsernameLength = MaxUsernameLength
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = MaxMessageLength
	}
	return &Router{
		registry:          NewConnectionRegistry(NewPalette(cfg.Palette, cfg.Intn)),
		directory:         NewRoomDirectory(cfg.Rooms),
		documents:         editor.NewApplier(cfg.MaxDocumentLength),
		maxUsernameLength: cfg.MaxUsernameLength,
		maxMessageLength:  cfg.MaxMessageLength,
		logger:            logger,
	}
}

// SetPublisher sets the cross-instance publisher. Call before traffic starts.
func (r *Router) SetPublisher(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// SetObserver sets the activity observer. Call before traffic starts.
func (r *Router) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Registry returns the connection registry.
func (r *Router) Registry() *ConnectionRegistry {
	return r.registry
}

// Directory returns the room directory.
func (r *Router) Directory() *RoomDirectory {
	return r.directory
}

// Documents returns the per-room documents.
func (r *Router) Documents() *editor.Applier {
	return r.documents
}

// Connect registers a new connection in the unidentified state.
func (r *Router) Connect(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Register(conn)
}

// UserConnected identifies the connection and joins it to room.
func (r *Router) UserConnected(id domain.ConnectionID, username, room string) error {
	return r.run(func() ([]Activity, error) {
		conn, _, state := r.registry.Get(id)
		if conn == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, id)
		}
		if state != StateUnidentified {
			return nil, r.fail(conn, ErrAlreadyIdentified)
		}

		username, err := ValidateUsername(username, r.maxUsernameLength)
		if err != nil {
			return nil, r.fail(conn, err)
		}
		room = strings.TrimSpace(room)
		if !r.directory.IsValid(room) {
			return nil, r.fail(conn, fmt.Errorf("%w: %s", domain.ErrInvalidRoom, room))
		}

		color, err := r.registry.AssignIdentity(id, username, room)
		if err != nil {
			return nil, r.fail(conn, err)
		}
		if err := r.directory.Join(room, username, color, id); err != nil {
			r.registry.ReleaseIdentity(id)
			return nil, r.fail(conn, err)
		}

		member := domain.Member{Username: username, Color: color}
		r.broadcast(room, EventUserJoined, member, id)
		r.broadcast(room, EventUsers, r.directory.Snapshot(room), "")
		r.send(conn, EventAvailableRooms, r.directory.Rooms())
		r.send(conn, EventEditorSync, EditorSyncPayload{Content: r.documents.Content(room)})
		r.publish(fanout.TypeUserJoined, room, member)

		r.logger.Info("User joined room", "username", username, "room", room, "connectionID", id)
		return []Activity{r.activity(ActivityJoined, room, username)}, nil
	})
}

// Message routes chat text from an identified connection. Text starting
// with RoomCommandPrefix is a room switch request instead.
func (r *Router) Message(id domain.ConnectionID, text string) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}

		if strings.HasPrefix(text, RoomCommandPrefix) {
			return r.switchRoom(conn, ident, strings.TrimSpace(text[len(RoomCommandPrefix):]))
		}

		text, err := ValidateMessage(text, r.maxMessageLength)
		if err != nil {
			return nil, r.fail(conn, err)
		}

		payload := MessagePayload{Username: ident.Username, Text: text, Color: ident.Color}
		r.broadcast(ident.Room, EventMessage, payload, id)
		r.publish(fanout.TypePublicMessage, ident.Room, payload)

		return []Activity{r.activity(ActivityMessage, ident.Room, ident.Username)}, nil
	})
}

// SwitchRoom moves an identified connection to newRoom.
func (r *Router) SwitchRoom(id domain.ConnectionID, newRoom string) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}
		return r.switchRoom(conn, ident, strings.TrimSpace(newRoom))
	})
}

func (r *Router) switchRoom(conn Conn, ident domain.Identity, newRoom string) ([]Activity, error) {
	oldRoom := ident.Room
	if !r.directory.IsValid(newRoom) {
		return nil, r.fail(conn, fmt.Errorf("%w: %s", domain.ErrInvalidRoom, newRoom))
	}
	if newRoom == oldRoom {
		return nil, r.fail(conn, fmt.Errorf("%w: %s", domain.ErrSameRoom, newRoom))
	}
	if err := r.directory.Move(ident.Username, oldRoom, newRoom); err != nil {
		return nil, r.fail(conn, err)
	}
	r.registry.SetRoom(ident.ConnectionID, newRoom)

	member := ident.Member()
	r.broadcast(oldRoom, EventUserLeft, member, ident.ConnectionID)
	r.broadcast(newRoom, EventUserJoined, member, ident.ConnectionID)
	r.broadcast(oldRoom, EventUsers, r.directory.Snapshot(oldRoom), "")
	r.broadcast(newRoom, EventUsers, r.directory.Snapshot(newRoom), "")
	r.send(conn, EventRoomChanged, RoomChangedPayload{
		OldRoom: oldRoom,
		NewRoom: newRoom,
		Message: fmt.Sprintf("You left %s and joined %s", oldRoom, newRoom),
	})
	r.send(conn, EventEditorSync, EditorSyncPayload{Content: r.documents.Content(newRoom)})
	r.publish(fanout.TypeUserLeft, oldRoom, member)
	r.publish(fanout.TypeUserJoined, newRoom, member)

	r.logger.Info("User switched room", "username", ident.Username, "from", oldRoom, "to", newRoom)
	return []Activity{
		r.activity(ActivityLeft, oldRoom, ident.Username),
		r.activity(ActivityJoined, newRoom, ident.Username),
	}, nil
}

// PrivateMessage delivers text to the connection holding target. An
// ErrUserNotFound result only means the target is not connected to this
// instance: the message is still offered to the other instances, and one
// of them may deliver it.
func (r *Router) PrivateMessage(id domain.ConnectionID, target, text string) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}

		text, err := ValidateMessage(text, r.maxMessageLength)
		if err != nil {
			return nil, r.fail(conn, err)
		}
		// Stored usernames are escaped; match the target the same way.
		target = editor.Sanitize(strings.TrimSpace(target))

		payload := MessagePayload{Username: ident.Username, Text: text, Color: ident.Color}
		targetConn, _, found := r.registry.LookupByUsername(target)
		if !found {
			r.publish(fanout.TypePrivateMessage, ident.Room, PrivatePayload{MessagePayload: payload, Target: target})
			return nil, r.fail(conn, fmt.Errorf("%w: %s", domain.ErrUserNotFound, target))
		}

		r.send(targetConn, EventPrivateMessage, payload)
		return []Activity{r.activity(ActivityPrivateMessage, ident.Room, ident.Username)}, nil
	})
}

// EditorUpdate applies delta to the sender's room document and relays it
// to the other members.
func (r *Router) EditorUpdate(id domain.ConnectionID, delta editor.Delta) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}

		applied, err := r.documents.Apply(ident.Room, delta)
		if err != nil {
			return nil, r.fail(conn, err)
		}

		r.broadcast(ident.Room, EventEditorUpdate, EditorUpdatePayload{
			Delta:    applied,
			Username: ident.Username,
			Color:    ident.Color,
		}, id)
		return []Activity{r.activity(ActivityEdit, ident.Room, ident.Username)}, nil
	})
}

// EditorSyncRequest sends the current room document to the requester.
func (r *Router) EditorSyncRequest(id domain.ConnectionID) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}
		r.send(conn, EventEditorSync, EditorSyncPayload{Content: r.documents.Content(ident.Room)})
		return nil, nil
	})
}

// CursorPosition relays the sender's caret to the other members.
func (r *Router) CursorPosition(id domain.ConnectionID, position int) error {
	return r.run(func() ([]Activity, error) {
		conn, ident, err := r.identified(id)
		if err != nil {
			return nil, err
		}
		if position < 0 {
			return nil, r.fail(conn, ErrInvalidPosition)
		}
		r.broadcast(ident.Room, EventCursorPosition, CursorPayload{
			Username: ident.Username,
			Position: position,
			Color:    ident.Color,
		}, id)
		return nil, nil
	})
}

// Disconnect removes the connection. Only the first call for an identified
// connection broadcasts its departure.
func (r *Router) Disconnect(id domain.ConnectionID) error {
	return r.run(func() ([]Activity, error) {
		ident, wasIdentified := r.registry.Remove(id)
		if !wasIdentified {
			return nil, nil
		}
		r.directory.Leave(ident.Room, ident.Username)

		member := ident.Member()
		r.broadcast(ident.Room, EventUserLeft, member, "")
		r.broadcast(ident.Room, EventUsers, r.directory.Snapshot(ident.Room), "")
		r.publish(fanout.TypeUserLeft, ident.Room, member)

		r.logger.Info("User disconnected", "username", ident.Username, "room", ident.Room, "connectionID", id)
		return []Activity{r.activity(ActivityLeft, ident.Room, ident.Username)}, nil
	})
}

// DeliverRemote hands an envelope from another instance to the local
// members it addresses. It never changes membership and never republishes.
func (r *Router) DeliverRemote(env fanout.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch env.Type {
	case fanout.TypePublicMessage:
		var payload MessagePayload
		if err := env.DecodePayload(&payload); err != nil {
			r.logger.Warn("Dropping remote envelope", "error", err)
			return
		}
		r.broadcast(env.Room, EventMessage, payload, "")

	case fanout.TypeUserJoined, fanout.TypeUserLeft:
		var member domain.Member
		if err := env.DecodePayload(&member); err != nil {
			r.logger.Warn("Dropping remote envelope", "error", err)
			return
		}
		event := EventUserJoined
		if env.Type == fanout.TypeUserLeft {
			event = EventUserLeft
		}
		r.broadcast(env.Room, event, member, "")

	case fanout.TypePrivateMessage:
		var payload PrivatePayload
		if err := env.DecodePayload(&payload); err != nil {
			r.logger.Warn("Dropping remote envelope", "error", err)
			return
		}
		if conn, _, found := r.registry.LookupByUsername(payload.Target); found {
			r.send(conn, EventPrivateMessage, payload.MessagePayload)
		}

	default:
		r.logger.Warn("Dropping remote envelope of unknown type", "type", env.Type)
	}
}

// run executes fn under the router lock and reports its activity afterwards.
func (r *Router) run(fn func() ([]Activity, error)) error {
	r.mu.Lock()
	activities, err := fn()
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		for _, a := range activities {
			observer.Observe(a)
		}
	}
	return err
}

func (r *Router) identified(id domain.ConnectionID) (Conn, domain.Identity, error) {
	conn, ident, state := r.registry.Get(id)
	if conn == nil {
		return nil, domain.Identity{}, fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	if state != StateIdentified {
		return nil, domain.Identity{}, r.fail(conn, ErrNotIdentified)
	}
	return conn, ident, nil
}

// fail reports err to conn only and returns it.
func (r *Router) fail(conn Conn, err error) error {
	r.send(conn, EventError, ErrorPayload{Message: err.Error(), Type: ErrorType(err)})
	return err
}

func (r *Router) send(conn Conn, event string, payload any) {
	if err := conn.Send(event, payload); err != nil {
		r.logger.Warn("Failed to deliver event", "event", event, "connectionID", conn.ID(), "error", err)
	}
}

// broadcast sends to every local member of room except exclude.
func (r *Router) broadcast(room, event string, payload any, exclude domain.ConnectionID) {
	for _, p := range r.directory.Members(room) {
		if p.ConnectionID == exclude {
			continue
		}
		conn, ok := r.registry.Conn(p.ConnectionID)
		if !ok {
			continue
		}
		r.send(conn, event, payload)
	}
}

func (r *Router) publish(kind fanout.EnvelopeType, room string, payload any) {
	if r.publisher != nil {
		r.publisher.Publish(kind, room, payload)
	}
}

func (r *Router) activity(kind ActivityKind, room, username string) Activity {
	return Activity{Kind: kind, Room: room, Username: username, At: time.Now()}
}
