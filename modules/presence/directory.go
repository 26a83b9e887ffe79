package presence

import (
	"fmt"
	"sync"

	domain "github.com/example/presence-router-demo/domain/presence"
)

// DefaultRooms is the allow-list used when none is configured.
var DefaultRooms = []string{"general", "tech"}

// Presence is a room member together with its connection.
type Presence struct {
	domain.Member
	ConnectionID domain.ConnectionID `json:"-"`
}

// RoomDirectory tracks who is in which room. Rooms come from a fixed
// allow-list and keep their members in join order.
type RoomDirectory struct {
	mu      sync.RWMutex
	allowed []string
	members map[string][]Presence
}

// NewRoomDirectory creates a directory for the given rooms.
func NewRoomDirectory(rooms []string) *RoomDirectory {
	if len(rooms) == 0 {
		rooms = DefaultRooms
	}
	d := &RoomDirectory{
		allowed: make([]string, 0, len(rooms)),
		members: make(map[string][]Presence, len(rooms)),
	}
	for _, room := range rooms {
		if _, dup := d.members[room]; dup {
			continue
		}
		d.allowed = append(d.allowed, room)
		d.members[room] = nil
	}
	return d
}

// IsValid reports whether room is in the allow-list.
func (d *RoomDirectory) IsValid(room string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.members[room]
	return ok
}

// Rooms returns the allow-list in configuration order.
func (d *RoomDirectory) Rooms() []string {
	rooms := make([]string, len(d.allowed))
	copy(rooms, d.allowed)
	return rooms
}

// Join appends username to room. Joining twice with the same username is a no-op.
func (d *RoomDirectory) Join(room, username, color string, id domain.ConnectionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.joinLocked(room, Presence{
		Member:       domain.Member{Username: username, Color: color},
		ConnectionID: id,
	})
}

func (d *RoomDirectory) joinLocked(room string, p Presence) error {
	members, ok := d.members[room]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRoom, room)
	}
	if indexOf(members, p.Username) >= 0 {
		return nil
	}
	d.members[room] = append(members, p)
	return nil
}

// Leave removes username from room. Absent members are ignored.
func (d *RoomDirectory) Leave(room, username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leaveLocked(room, username)
}

func (d *RoomDirectory) leaveLocked(room, username string) (Presence, bool) {
	members := d.members[room]
	i := indexOf(members, username)
	if i < 0 {
		return Presence{}, false
	}
	p := members[i]
	next := make([]Presence, 0, len(members)-1)
	next = append(next, members[:i]...)
	next = append(next, members[i+1:]...)
	d.members[room] = next
	return p, true
}

// Move takes username out of from and puts it into to. Nothing changes when
// to is unknown, equals from, or username is not in from.
func (d *RoomDirectory) Move(username, from, to string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.members[to]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRoom, to)
	}
	if from == to {
		return fmt.Errorf("%w: %s", domain.ErrSameRoom, to)
	}
	if indexOf(d.members[from], username) < 0 {
		return fmt.Errorf("%w: %s not in %s", ErrNotMember, username, from)
	}

	p, _ := d.leaveLocked(from, username)
	return d.joinLocked(to, p)
}

// Snapshot returns the members of room in join order.
func (d *RoomDirectory) Snapshot(room string) []domain.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := d.members[room]
	out := make([]domain.Member, 0, len(members))
	for _, p := range members {
		out = append(out, p.Member)
	}
	return out
}

// Members returns the members of room with their connections.
func (d *RoomDirectory) Members(room string) []Presence {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := d.members[room]
	out := make([]Presence, len(members))
	copy(out, members)
	return out
}

// RoomOf returns the room username is in, if any.
func (d *RoomDirectory) RoomOf(username string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, room := range d.allowed {
		if indexOf(d.members[room], username) >= 0 {
			return room, true
		}
	}
	return "", false
}

// List returns every room with its member count.
func (d *RoomDirectory) List() []domain.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]domain.RoomInfo, 0, len(d.allowed))
	for _, room := range d.allowed {
		rooms = append(rooms, domain.RoomInfo{Name: room, Users: len(d.members[room])})
	}
	return rooms
}

func indexOf(members []Presence, username string) int {
	for i, p := range members {
		if p.Username == username {
			return i
		}
	}
	return -1
}
