package presence

// ConnectionID identifies one live client connection within a process.
type ConnectionID string

// Member is a named user as it appears in a room snapshot.
type Member struct {
	Username string `json:"username"`
	Color    string `json:"color"`
}

// Identity is what a connection becomes after a successful handshake.
type Identity struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Username     string       `json:"username"`
	Color        string       `json:"color"`
	Room         string       `json:"room"`
}

// Member returns the public part of the identity.
func (i Identity) Member() Member {
	return Member{Username: i.Username, Color: i.Color}
}

// RoomInfo summarizes a configured room.
type RoomInfo struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}
