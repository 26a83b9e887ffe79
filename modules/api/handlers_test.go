package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/presence"
	"github.com/example/presence-router-demo/modules/stats"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// mockPresencePort implements presence.PresencePort for testing
type mockPresencePort struct {
	listRoomsFunc    func(ctx context.Context) ([]domain.RoomInfo, error)
	getRoomUsersFunc func(ctx context.Context, room string) ([]domain.Member, bool, error)
	getDocumentFunc  func(ctx context.Context, room string) (*presence.GetDocumentResponse, error)
}

func (m *mockPresencePort) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	if m.listRoomsFunc != nil {
		return m.listRoomsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPresencePort) GetRoomUsers(ctx context.Context, room string) ([]domain.Member, bool, error) {
	if m.getRoomUsersFunc != nil {
		return m.getRoomUsersFunc(ctx, room)
	}
	return nil, false, errors.New("not implemented")
}

func (m *mockPresencePort) GetDocument(ctx context.Context, room string) (*presence.GetDocumentResponse, error) {
	if m.getDocumentFunc != nil {
		return m.getDocumentFunc(ctx, room)
	}
	return nil, errors.New("not implemented")
}

func newTestAPI(port presence.PresencePort) *APIModule {
	m := NewModule(Config{}, &mockLogger{})
	m.presence = port
	return m
}

func doGet(t *testing.T, m *APIModule, path string) (int, string) {
	t.Helper()

	app := m.newApp()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestRESTHandlers(t *testing.T) {
	port := &mockPresencePort{
		listRoomsFunc: func(ctx context.Context) ([]domain.RoomInfo, error) {
			return []domain.RoomInfo{{Name: "general", Users: 2}, {Name: "tech", Users: 0}}, nil
		},
		getRoomUsersFunc: func(ctx context.Context, room string) ([]domain.Member, bool, error) {
			if room != "general" {
				return []domain.Member{}, false, nil
			}
			return []domain.Member{{Username: "alice", Color: "red"}}, true, nil
		},
		getDocumentFunc: func(ctx context.Context, room string) (*presence.GetDocumentResponse, error) {
			if room != "general" {
				return &presence.GetDocumentResponse{Room: room}, nil
			}
			return &presence.GetDocumentResponse{Room: room, Exists: true, Content: "hello", Length: 5, MaxLength: 50000}, nil
		},
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "list rooms",
			path:           "/api/v1/rooms",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"name":"general","users":2}`,
		},
		{
			name:           "room users",
			path:           "/api/v1/rooms/general/users",
			expectedStatus: http.StatusOK,
			expectedBody:   `"users":[{"username":"alice","color":"red"}]`,
		},
		{
			name:           "unknown room users",
			path:           "/api/v1/rooms/random/users",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"invalid_room"`,
		},
		{
			name:           "room document",
			path:           "/api/v1/rooms/general/document",
			expectedStatus: http.StatusOK,
			expectedBody:   `"content":"hello","length":5,"max_length":50000`,
		},
		{
			name:           "unknown room document",
			path:           "/api/v1/rooms/random/document",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"invalid_room"`,
		},
		{
			name:           "websocket endpoint without upgrade",
			path:           "/ws",
			expectedStatus: http.StatusUpgradeRequired,
		},
		{
			name:           "health",
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectedBody:   `"healthy"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, newTestAPI(port), tt.path)

			if status != tt.expectedStatus {
				t.Errorf("status = %v, want %v", status, tt.expectedStatus)
			}
			if tt.expectedBody != "" && !strings.Contains(body, tt.expectedBody) {
				t.Errorf("body = %v, want to contain %v", body, tt.expectedBody)
			}
		})
	}
}

func TestRESTHandlers_AdapterFailure(t *testing.T) {
	status, body := doGet(t, newTestAPI(&mockPresencePort{}), "/api/v1/rooms")

	if status != http.StatusInternalServerError {
		t.Errorf("status = %v, want %v", status, http.StatusInternalServerError)
	}
	if !strings.Contains(body, `"list_failed"`) {
		t.Errorf("body = %v, want to contain list_failed", body)
	}
}

func TestStatusHandler(t *testing.T) {
	router := presence.NewRouter(presence.Config{Rooms: []string{"general", "tech"}}, &mockLogger{})
	conn := &recordingConn{id: "c1"}
	if err := router.Connect(conn); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := router.UserConnected("c1", "alice", "general"); err != nil {
		t.Fatalf("UserConnected() error = %v", err)
	}

	store := stats.NewStore()
	store.RecordMessage("general", false, store.StartedAt())

	m := newTestAPI(&mockPresencePort{})
	m.SetRouter(router)
	m.SetStats(store)

	status, body := doGet(t, m, "/status")
	if status != http.StatusOK {
		t.Fatalf("status = %v, want %v", status, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if resp.Connections != 1 || resp.Identified != 1 {
		t.Errorf("connections = %d/%d, want 1/1", resp.Connections, resp.Identified)
	}
	if resp.FanoutMode != "local-only" {
		t.Errorf("fanout_mode = %q, want %q", resp.FanoutMode, "local-only")
	}
	if len(resp.Rooms) != 2 || resp.Rooms[0].Users != 1 {
		t.Errorf("rooms = %+v, want general with 1 user", resp.Rooms)
	}
	if len(resp.Activity) != 1 || resp.Activity[0].Messages != 1 {
		t.Errorf("activity = %+v, want one message in general", resp.Activity)
	}
}
