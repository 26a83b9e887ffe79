package presence

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresencePort defines the read-only room queries other modules may call.
type PresencePort interface {
	ListRooms(ctx context.Context) ([]domain.RoomInfo, error)
	GetRoomUsers(ctx context.Context, room string) ([]domain.Member, bool, error)
	GetDocument(ctx context.Context, room string) (*GetDocumentResponse, error)
}

// PresenceAdapter implements PresencePort using the service container.
type PresenceAdapter struct {
	container mono.ServiceContainer
}

// NewPresenceAdapter creates a new PresenceAdapter.
func NewPresenceAdapter(container mono.ServiceContainer) PresencePort {
	if container == nil {
		panic("presence: ServiceContainer is nil")
	}
	return &PresenceAdapter{container: container}
}

// ListRooms returns every configured room with its member count.
func (a *PresenceAdapter) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetRoomUsers returns the members of room and whether the room exists.
func (a *PresenceAdapter) GetRoomUsers(ctx context.Context, room string) ([]domain.Member, bool, error) {
	req := GetRoomUsersRequest{Room: room}
	var resp GetRoomUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoomUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, false, fmt.Errorf("failed to get room users: %w", err)
	}
	return resp.Users, resp.Exists, nil
}

// GetDocument returns the shared document of room.
func (a *PresenceAdapter) GetDocument(ctx context.Context, room string) (*GetDocumentResponse, error) {
	req := GetDocumentRequest{Room: room}
	var resp GetDocumentResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetDocument,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &resp, nil
}
