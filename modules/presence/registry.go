package presence

import (
	"fmt"
	"sync"

	domain "github.com/example/presence-router-demo/domain/presence"
)

type registryEntry struct {
	conn     Conn
	state    State
	identity domain.Identity
}

// ConnectionRegistry maps connections to identities and usernames back to
// connections. Usernames are unique across the whole process.
type ConnectionRegistry struct {
	mu         sync.RWMutex
	byID       map[domain.ConnectionID]*registryEntry
	byUsername map[string]domain.ConnectionID
	palette    *Palette
}

// NewConnectionRegistry creates an empty registry using palette for colours.
func NewConnectionRegistry(palette *Palette) *ConnectionRegistry {
	if palette == nil {
		palette = NewPalette(nil, nil)
	}
	return &ConnectionRegistry{
		byID:       make(map[domain.ConnectionID]*registryEntry),
		byUsername: make(map[string]domain.ConnectionID),
		palette:    palette,
	}
}

// Register adds a connection with no identity.
func (r *ConnectionRegistry) Register(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrConnectionExists, id)
	}
	r.byID[id] = &registryEntry{
		conn:     conn,
		state:    StateUnidentified,
		identity: domain.Identity{ConnectionID: id},
	}
	return nil
}

// AssignIdentity binds username and room to the connection and returns the
// colour picked for it. The uniqueness check and the insert happen under one lock.
func (r *ConnectionRegistry) AssignIdentity(id domain.ConnectionID, username, room string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	if e.state != StateUnidentified {
		return "", ErrAlreadyIdentified
	}
	if _, taken := r.byUsername[username]; taken {
		return "", fmt.Errorf("%w: %s", domain.ErrUsernameTaken, username)
	}

	color := r.palette.Pick()
	e.state = StateIdentified
	e.identity = domain.Identity{
		ConnectionID: id,
		Username:     username,
		Color:        color,
		Room:         room,
	}
	r.byUsername[username] = id
	return color, nil
}

// ReleaseIdentity returns an identified connection to the unidentified
// state and frees its username.
func (r *ConnectionRegistry) ReleaseIdentity(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.state != StateIdentified {
		return
	}
	delete(r.byUsername, e.identity.Username)
	e.state = StateUnidentified
	e.identity = domain.Identity{ConnectionID: id}
}

// SetRoom records the current room of an identified connection.
func (r *ConnectionRegistry) SetRoom(id domain.ConnectionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byID[id]; ok && e.state == StateIdentified {
		e.identity.Room = room
	}
}

// Get returns the connection, its identity and its state. Unknown ids report
// StateDisconnected.
func (r *ConnectionRegistry) Get(id domain.ConnectionID) (Conn, domain.Identity, State) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, domain.Identity{}, StateDisconnected
	}
	return e.conn, e.identity, e.state
}

// Conn returns the connection registered under id.
func (r *ConnectionRegistry) Conn(id domain.ConnectionID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// LookupByUsername finds the connection currently holding username.
func (r *ConnectionRegistry) LookupByUsername(username string) (Conn, domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.Identity{}, false
	}
	e := r.byID[id]
	return e.conn, e.identity, true
}

// Remove deletes the connection from both indexes. It is safe to call more
// than once; only the first call for an identified connection reports true.
func (r *ConnectionRegistry) Remove(id domain.ConnectionID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return domain.Identity{}, false
	}
	delete(r.byID, id)

	if e.state != StateIdentified {
		return domain.Identity{}, false
	}
	if r.byUsername[e.identity.Username] == id {
		delete(r.byUsername, e.identity.Username)
	}
	e.state = StateDisconnected
	return e.identity, true
}

// Count returns the number of registered connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// IdentifiedCount returns the number of connections holding a username.
func (r *ConnectionRegistry) IdentifiedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUsername)
}
