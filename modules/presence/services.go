package presence

import (
	"context"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono"
)

// Service names
const (
	ServiceListRooms    = "list-rooms"
	ServiceGetRoomUsers = "get-room-users"
	ServiceGetDocument  = "get-document"
)

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse lists every room with its local member count.
type ListRoomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

// GetRoomUsersRequest is the request for the get-room-users service.
type GetRoomUsersRequest struct {
	Room string `json:"room"`
}

// GetRoomUsersResponse is the member snapshot of one room.
type GetRoomUsersResponse struct {
	Room   string          `json:"room"`
	Exists bool            `json:"exists"`
	Users  []domain.Member `json:"users"`
}

// GetDocumentRequest is the request for the get-document service.
type GetDocumentRequest struct {
	Room string `json:"room"`
}

// GetDocumentResponse carries a room document.
type GetDocumentResponse struct {
	Room    string `json:"room"`
	Exists  bool   `json:"exists"`
	Content   string `json:"content"`
	Length    int    `json:"length"`
	MaxLength int    `json:"max_length"`
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.router.Directory().List()}, nil
}

func (m *Module) handleGetRoomUsers(_ context.Context, req GetRoomUsersRequest, _ *mono.Msg) (GetRoomUsersResponse, error) {
	dir := m.router.Directory()
	if !dir.IsValid(req.Room) {
		return GetRoomUsersResponse{Room: req.Room, Users: []domain.Member{}}, nil
	}
	return GetRoomUsersResponse{
		Room:   req.Room,
		Exists: true,
		Users:  dir.Snapshot(req.Room),
	}, nil
}

func (m *Module) handleGetDocument(_ context.Context, req GetDocumentRequest, _ *mono.Msg) (GetDocumentResponse, error) {
	if !m.router.Directory().IsValid(req.Room) {
		return GetDocumentResponse{Room: req.Room}, nil
	}
	docs := m.router.Documents()
	return GetDocumentResponse{
		Room:      req.Room,
		Exists:    true,
		Content:   docs.Content(req.Room),
		Length:    docs.Length(req.Room),
		MaxLength: docs.MaxLength(),
	}, nil
}
