package stats

import (
	"sort"
	"sync"
	"time"
)

// RoomStats aggregates activity for one room.
type RoomStats struct {
	Room            string    `json:"room"`
	Joins           uint64    `json:"joins"`
	Leaves          uint64    `json:"leaves"`
	Messages        uint64    `json:"messages"`
	PrivateMessages uint64    `json:"private_messages"`
	Edits           uint64    `json:"edits"`
	LastActivity    time.Time `json:"last_activity"`
}

// Store keeps per-room counters in memory.
type Store struct {
	mu        sync.RWMutex
	rooms     map[string]*RoomStats
	startedAt time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rooms:     make(map[string]*RoomStats),
		startedAt: time.Now(),
	}
}

func (s *Store) update(room string, at time.Time, fn func(*RoomStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[room]
	if !ok {
		rs = &RoomStats{Room: room}
		s.rooms[room] = rs
	}
	fn(rs)
	if at.After(rs.LastActivity) {
		rs.LastActivity = at
	}
}

// RecordJoin counts a user entering room.
func (s *Store) RecordJoin(room string, at time.Time) {
	s.update(room, at, func(rs *RoomStats) { rs.Joins++ })
}

// RecordLeave counts a user leaving room.
func (s *Store) RecordLeave(room string, at time.Time) {
	s.update(room, at, func(rs *RoomStats) { rs.Leaves++ })
}

// RecordMessage counts a public or private message sent from room.
func (s *Store) RecordMessage(room string, private bool, at time.Time) {
	s.update(room, at, func(rs *RoomStats) {
		if private {
			rs.PrivateMessages++
			return
		}
		rs.Messages++
	})
}

// RecordEdit counts a document edit in room.
func (s *Store) RecordEdit(room string, at time.Time) {
	s.update(room, at, func(rs *RoomStats) { rs.Edits++ })
}

// Room returns the stats of one room.
func (s *Store) Room(room string) (RoomStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.rooms[room]
	if !ok {
		return RoomStats{Room: room}, false
	}
	return *rs, true
}

// All returns a copy of every room's stats sorted by room name.
func (s *Store) All() []RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RoomStats, 0, len(s.rooms))
	for _, rs := range s.rooms {
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}

// StartedAt returns when the store was created.
func (s *Store) StartedAt() time.Time {
	return s.startedAt
}

// Uptime returns how long the store has been collecting.
func (s *Store) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
