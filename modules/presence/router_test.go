package presence

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/editor"
	"github.com/example/presence-router-demo/modules/fanout"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type sentEvent struct {
	Name    string
	Payload any
}

// fakeConn records every event sent to it.
type fakeConn struct {
	id     domain.ConnectionID
	mu     sync.Mutex
	events []sentEvent
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: domain.ConnectionID(id)}
}

func (c *fakeConn) ID() domain.ConnectionID { return c.id }

func (c *fakeConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{Name: event, Payload: payload})
	return nil
}

func (c *fakeConn) named(name string) []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentEvent
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) last(name string) (any, bool) {
	events := c.named(name)
	if len(events) == 0 {
		return nil, false
	}
	return events[len(events)-1].Payload, true
}

func (c *fakeConn) lastError(t *testing.T) ErrorPayload {
	t.Helper()
	p, ok := c.last(EventError)
	require.True(t, ok, "no error event for %s", c.id)
	return p.(ErrorPayload)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// recordingPublisher captures envelopes the router hands to the bus.
type recordingPublisher struct {
	mu        sync.Mutex
	envelopes []fanout.Envelope
}

func (p *recordingPublisher) Publish(kind fanout.EnvelopeType, room string, payload any) {
	raw, _ := json.Marshal(payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, fanout.Envelope{Type: kind, Room: room, Payload: raw})
}

func (p *recordingPublisher) types() []fanout.EnvelopeType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]fanout.EnvelopeType, 0, len(p.envelopes))
	for _, e := range p.envelopes {
		out = append(out, e.Type)
	}
	return out
}

type recordingObserver struct {
	mu         sync.Mutex
	activities []Activity
}

func (o *recordingObserver) Observe(a Activity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activities = append(o.activities, a)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(Config{
		Rooms:   []string{"general", "tech"},
		Palette: []string{"red", "blue"},
		Intn:    func(int) int { return 0 },
	}, &mockLogger{})
}

func connect(t *testing.T, r *Router, id string) *fakeConn {
	t.Helper()
	c := newFakeConn(id)
	require.NoError(t, r.Connect(c))
	return c
}

func join(t *testing.T, r *Router, id, username, room string) *fakeConn {
	t.Helper()
	c := connect(t, r, id)
	require.NoError(t, r.UserConnected(c.ID(), username, room))
	return c
}

func usernames(members []domain.Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Username)
	}
	return out
}

func TestRouter_Scenario(t *testing.T) {
	r := newTestRouter(t)

	alice := join(t, r, "c1", "alice", "general")
	snap, ok := alice.last(EventUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, usernames(snap.([]domain.Member)))

	bob := join(t, r, "c2", "bob", "general")

	joined, ok := alice.last(EventUserJoined)
	require.True(t, ok)
	assert.Equal(t, "bob", joined.(domain.Member).Username)
	assert.Empty(t, bob.named(EventUserJoined), "joiner must not receive its own user_joined")

	for _, c := range []*fakeConn{alice, bob} {
		snap, ok := c.last(EventUsers)
		require.True(t, ok)
		assert.Equal(t, []string{"alice", "bob"}, usernames(snap.([]domain.Member)))
	}

	// bob says hello: only alice gets it.
	require.NoError(t, r.Message(bob.ID(), "hello"))
	msg, ok := alice.last(EventMessage)
	require.True(t, ok)
	assert.Equal(t, MessagePayload{Username: "bob", Text: "hello", Color: "red"}, msg)
	assert.Empty(t, bob.named(EventMessage))

	// bob moves to tech.
	alice.reset()
	require.NoError(t, r.Message(bob.ID(), "/room tech"))

	left, ok := alice.last(EventUserLeft)
	require.True(t, ok)
	assert.Equal(t, "bob", left.(domain.Member).Username)

	changed, ok := bob.last(EventRoomChanged)
	require.True(t, ok)
	assert.Equal(t, "general", changed.(RoomChangedPayload).OldRoom)
	assert.Equal(t, "tech", changed.(RoomChangedPayload).NewRoom)

	assert.Equal(t, []string{"alice"}, usernames(r.Directory().Snapshot("general")))
	assert.Equal(t, []string{"bob"}, usernames(r.Directory().Snapshot("tech")))

	// alice whispers to bob across rooms.
	require.NoError(t, r.PrivateMessage(alice.ID(), "bob", "hi"))
	pm, ok := bob.last(EventPrivateMessage)
	require.True(t, ok)
	assert.Equal(t, "alice", pm.(MessagePayload).Username)
	assert.Equal(t, "hi", pm.(MessagePayload).Text)
	assert.Empty(t, alice.named(EventPrivateMessage))
}

func TestRouter_UsernameUniqueness(t *testing.T) {
	r := newTestRouter(t)
	first := join(t, r, "c1", "alice", "general")

	second := connect(t, r, "c2")
	err := r.UserConnected(second.ID(), "alice", "tech")

	require.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.Equal(t, domain.ErrorTypeUsernameTaken, second.lastError(t).Type)
	assert.Empty(t, first.named(EventError))

	_, ident, state := r.Registry().Get(first.ID())
	assert.Equal(t, StateIdentified, state)
	assert.Equal(t, "general", ident.Room)

	_, _, state = r.Registry().Get(second.ID())
	assert.Equal(t, StateUnidentified, state)
	assert.Empty(t, r.Directory().Snapshot("tech"))

	// The username is free again once its holder disconnects.
	require.NoError(t, r.Disconnect(first.ID()))
	require.NoError(t, r.UserConnected(second.ID(), "alice", "tech"))
}

func TestRouter_ConcurrentJoinsSameUsername(t *testing.T) {
	r := newTestRouter(t)

	const n = 50
	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = connect(t, r, "c"+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.UserConnected(conns[i].ID(), "alice", "general")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrUsernameTaken)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, r.Directory().Snapshot("general"), 1)
}

func TestRouter_UserConnectedErrors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		room     string
		wantErr  error
		wantType string
	}{
		{"invalid room", "alice", "random", domain.ErrInvalidRoom, domain.ErrorTypeInvalidRoom},
		{"empty username", "   ", "general", ErrUsernameEmpty, domain.ErrorTypeValidation},
		{"long username", "abcdefghijklmnopqrstuvwxyz", "general", ErrUsernameTooLong, domain.ErrorTypeValidation},
		{"short username", "a", "general", ErrUsernameTooShort, domain.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)
			c := connect(t, r, "c1")

			err := r.UserConnected(c.ID(), tt.username, tt.room)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantType, c.lastError(t).Type)

			_, _, state := r.Registry().Get(c.ID())
			assert.Equal(t, StateUnidentified, state)
		})
	}
}

func TestRouter_UsernameIsEscapedForMembers(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	mallory := join(t, r, "c2", "<b>x</b>", "general")

	joined, ok := alice.last(EventUserJoined)
	require.True(t, ok)
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", joined.(domain.Member).Username)

	users, ok := alice.last(EventUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "&lt;b&gt;x&lt;/b&gt;"}, usernames(users.([]domain.Member)))

	require.NoError(t, r.Message(mallory.ID(), "hi"))
	msg, ok := alice.last(EventMessage)
	require.True(t, ok)
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", msg.(MessagePayload).Username)

	// Private messages address the raw name and reach the escaped holder.
	require.NoError(t, r.PrivateMessage(alice.ID(), "<b>x</b>", "psst"))
	pm, ok := mallory.last(EventPrivateMessage)
	require.True(t, ok)
	assert.Equal(t, "psst", pm.(MessagePayload).Text)
}

func TestRouter_UserConnectedTrimsRoom(t *testing.T) {
	r := newTestRouter(t)
	c := join(t, r, "c1", "alice", "  tech ")

	_, ident, state := r.Registry().Get(c.ID())
	assert.Equal(t, StateIdentified, state)
	assert.Equal(t, "tech", ident.Room)
	assert.Equal(t, []string{"alice"}, usernames(r.Directory().Snapshot("tech")))
}

func TestRouter_SecondUserConnectedIsRejected(t *testing.T) {
	r := newTestRouter(t)
	c := join(t, r, "c1", "alice", "general")

	err := r.UserConnected(c.ID(), "alicia", "tech")
	require.ErrorIs(t, err, ErrAlreadyIdentified)
	assert.Equal(t, []string{"alice"}, usernames(r.Directory().Snapshot("general")))
}

func TestRouter_JoinSendsRoomsAndDocument(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	require.NoError(t, r.EditorUpdate(alice.ID(), editor.Delta{Type: editor.DeltaInsert, Text: "draft"}))

	bob := join(t, r, "c2", "bob", "general")

	rooms, ok := bob.last(EventAvailableRooms)
	require.True(t, ok)
	assert.Equal(t, []string{"general", "tech"}, rooms)

	doc, ok := bob.last(EventEditorSync)
	require.True(t, ok)
	assert.Equal(t, "draft", doc.(EditorSyncPayload).Content)
}

func TestRouter_EventsBeforeJoin(t *testing.T) {
	r := newTestRouter(t)
	c := connect(t, r, "c1")

	require.ErrorIs(t, r.Message(c.ID(), "hello"), ErrNotIdentified)
	require.ErrorIs(t, r.PrivateMessage(c.ID(), "bob", "hi"), ErrNotIdentified)
	assert.Equal(t, domain.ErrorTypeNotIdentified, c.lastError(t).Type)

	require.ErrorIs(t, r.Message("missing", "hello"), ErrUnknownConnection)
}

func TestRouter_SwitchRoomRejections(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantErr  error
		wantType string
	}{
		{"unknown room", "/room random", domain.ErrInvalidRoom, domain.ErrorTypeInvalidRoom},
		{"same room", "/room general", domain.ErrSameRoom, domain.ErrorTypeSameRoom},
		{"empty room", "/room ", domain.ErrInvalidRoom, domain.ErrorTypeInvalidRoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)
			alice := join(t, r, "c1", "alice", "general")
			bob := join(t, r, "c2", "bob", "general")
			carol := join(t, r, "c3", "carol", "tech")

			beforeGeneral, _ := json.Marshal(r.Directory().Snapshot("general"))
			beforeTech, _ := json.Marshal(r.Directory().Snapshot("tech"))
			alice.reset()
			carol.reset()

			err := r.Message(bob.ID(), tt.text)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantType, bob.lastError(t).Type)

			afterGeneral, _ := json.Marshal(r.Directory().Snapshot("general"))
			afterTech, _ := json.Marshal(r.Directory().Snapshot("tech"))
			assert.Equal(t, string(beforeGeneral), string(afterGeneral))
			assert.Equal(t, string(beforeTech), string(afterTech))

			assert.Empty(t, alice.events, "errors must not be broadcast")
			assert.Empty(t, carol.events)
			_, ident, _ := r.Registry().Get(bob.ID())
			assert.Equal(t, "general", ident.Room)
		})
	}
}

func TestRouter_SwitchRoomBroadcasts(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")
	carol := join(t, r, "c3", "carol", "tech")
	alice.reset()
	bob.reset()
	carol.reset()

	require.NoError(t, r.SwitchRoom(bob.ID(), "tech"))

	joined, ok := carol.last(EventUserJoined)
	require.True(t, ok)
	assert.Equal(t, "bob", joined.(domain.Member).Username)

	snap, ok := carol.last(EventUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"carol", "bob"}, usernames(snap.([]domain.Member)))

	snap, ok = alice.last(EventUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, usernames(snap.([]domain.Member)))

	assert.Empty(t, bob.named(EventUserJoined))
	assert.Empty(t, bob.named(EventUserLeft))
	assert.Len(t, bob.named(EventRoomChanged), 1)

	// Messages now reach tech only.
	require.NoError(t, r.Message(bob.ID(), "hey tech"))
	assert.Len(t, carol.named(EventMessage), 1)
	assert.Empty(t, alice.named(EventMessage))
}

func TestRouter_MembershipIsExclusive(t *testing.T) {
	r := newTestRouter(t)
	bob := join(t, r, "c1", "bob", "general")

	for _, room := range []string{"tech", "general", "tech"} {
		require.NoError(t, r.SwitchRoom(bob.ID(), room))

		count := 0
		for _, name := range r.Directory().Rooms() {
			for _, m := range r.Directory().Snapshot(name) {
				if m.Username == "bob" {
					count++
				}
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestRouter_PrivateMessageToAbsentUser(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")
	bob.reset()

	pub := &recordingPublisher{}
	r.SetPublisher(pub)

	err := r.PrivateMessage(alice.ID(), "carol", "anyone?")

	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, domain.ErrorTypeUserNotFound, alice.lastError(t).Type)
	assert.Empty(t, bob.events)
	assert.Empty(t, alice.named(EventPrivateMessage))

	// Not connected here is not the same as nowhere: other instances get a chance.
	require.Equal(t, []fanout.EnvelopeType{fanout.TypePrivateMessage}, pub.types())
	var relayed PrivatePayload
	require.NoError(t, pub.envelopes[0].DecodePayload(&relayed))
	assert.Equal(t, "carol", relayed.Target)
	assert.Equal(t, "anyone?", relayed.Text)
}

func TestRouter_PrivateMessageIsNotBroadcast(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")
	carol := join(t, r, "c3", "carol", "general")
	carol.reset()

	require.NoError(t, r.PrivateMessage(alice.ID(), " bob ", "<secret>"))

	pm, ok := bob.last(EventPrivateMessage)
	require.True(t, ok)
	assert.Equal(t, "&lt;secret&gt;", pm.(MessagePayload).Text)
	assert.Empty(t, carol.events)
	assert.Empty(t, alice.named(EventPrivateMessage))
}

func TestRouter_MessageValidation(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")

	require.ErrorIs(t, r.Message(alice.ID(), "  "), ErrMessageEmpty)
	assert.Equal(t, domain.ErrorTypeValidation, alice.lastError(t).Type)
	assert.Empty(t, bob.named(EventMessage))

	// "/room" without the trailing space is plain chat.
	require.NoError(t, r.Message(alice.ID(), "/room"))
	assert.Len(t, bob.named(EventMessage), 1)
}

func TestRouter_DisconnectIsIdempotent(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")
	alice.reset()

	require.NoError(t, r.Disconnect(bob.ID()))
	require.NoError(t, r.Disconnect(bob.ID()))

	assert.Len(t, alice.named(EventUserLeft), 1)
	snap, ok := alice.last(EventUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, usernames(snap.([]domain.Member)))

	_, _, state := r.Registry().Get(bob.ID())
	assert.Equal(t, StateDisconnected, state)
	_, _, found := r.Registry().LookupByUsername("bob")
	assert.False(t, found)
}

func TestRouter_DisconnectUnidentified(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	alice.reset()
	c := connect(t, r, "c2")

	require.NoError(t, r.Disconnect(c.ID()))
	assert.Empty(t, alice.events)
	assert.Equal(t, 1, r.Registry().Count())
}

func TestRouter_EditorUpdate(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")
	carol := join(t, r, "c3", "carol", "tech")

	require.NoError(t, r.EditorUpdate(alice.ID(), editor.Delta{Type: editor.DeltaInsert, Position: 0, Text: "hello"}))

	update, ok := bob.last(EventEditorUpdate)
	require.True(t, ok)
	assert.Equal(t, "alice", update.(EditorUpdatePayload).Username)
	assert.Equal(t, "hello", update.(EditorUpdatePayload).Text)
	assert.Empty(t, alice.named(EventEditorUpdate))
	assert.Empty(t, carol.named(EventEditorUpdate))

	err := r.EditorUpdate(bob.ID(), editor.Delta{Type: editor.DeltaDelete, Position: 3, DeletedLength: 10})
	require.ErrorIs(t, err, domain.ErrOutOfBounds)
	assert.Equal(t, domain.ErrorTypeOutOfBounds, bob.lastError(t).Type)
	assert.Equal(t, "hello", r.Documents().Content("general"))

	require.NoError(t, r.EditorSyncRequest(carol.ID()))
	doc, ok := carol.last(EventEditorSync)
	require.True(t, ok)
	assert.Equal(t, "", doc.(EditorSyncPayload).Content)
}

func TestRouter_CursorPosition(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "general")

	require.NoError(t, r.CursorPosition(alice.ID(), 4))
	cursor, ok := bob.last(EventCursorPosition)
	require.True(t, ok)
	assert.Equal(t, CursorPayload{Username: "alice", Position: 4, Color: "red"}, cursor)
	assert.Empty(t, alice.named(EventCursorPosition))

	require.ErrorIs(t, r.CursorPosition(alice.ID(), -1), ErrInvalidPosition)
}

func TestRouter_PublishesForOtherInstances(t *testing.T) {
	r := newTestRouter(t)
	pub := &recordingPublisher{}
	r.SetPublisher(pub)

	alice := join(t, r, "c1", "alice", "general")
	require.NoError(t, r.Message(alice.ID(), "hi"))
	require.NoError(t, r.SwitchRoom(alice.ID(), "tech"))
	require.ErrorIs(t, r.PrivateMessage(alice.ID(), "dave", "psst"), domain.ErrUserNotFound)
	require.NoError(t, r.CursorPosition(alice.ID(), 1))
	require.NoError(t, r.Disconnect(alice.ID()))

	assert.Equal(t, []fanout.EnvelopeType{
		fanout.TypeUserJoined,
		fanout.TypePublicMessage,
		fanout.TypeUserLeft,
		fanout.TypeUserJoined,
		fanout.TypePrivateMessage,
		fanout.TypeUserLeft,
	}, pub.types())
}

func TestRouter_LocalPrivateMessageIsNotPublished(t *testing.T) {
	r := newTestRouter(t)
	pub := &recordingPublisher{}
	alice := join(t, r, "c1", "alice", "general")
	join(t, r, "c2", "bob", "tech")
	r.SetPublisher(pub)

	require.NoError(t, r.PrivateMessage(alice.ID(), "bob", "hi"))
	assert.Empty(t, pub.types())
}

func TestRouter_DeliverRemote(t *testing.T) {
	r := newTestRouter(t)
	alice := join(t, r, "c1", "alice", "general")
	bob := join(t, r, "c2", "bob", "tech")
	alice.reset()
	bob.reset()

	envelope := func(kind fanout.EnvelopeType, room string, payload any) fanout.Envelope {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		return fanout.Envelope{Type: kind, Room: room, Payload: raw, OriginInstanceID: "other", SequenceNumber: 1}
	}

	r.DeliverRemote(envelope(fanout.TypePublicMessage, "general",
		MessagePayload{Username: "zed", Text: "from afar", Color: "blue"}))
	msg, ok := alice.last(EventMessage)
	require.True(t, ok)
	assert.Equal(t, "zed", msg.(MessagePayload).Username)
	assert.Empty(t, bob.events)

	r.DeliverRemote(envelope(fanout.TypeUserJoined, "tech", domain.Member{Username: "zed", Color: "blue"}))
	joined, ok := bob.last(EventUserJoined)
	require.True(t, ok)
	assert.Equal(t, "zed", joined.(domain.Member).Username)

	r.DeliverRemote(envelope(fanout.TypePrivateMessage, "general", PrivatePayload{
		MessagePayload: MessagePayload{Username: "zed", Text: "psst", Color: "blue"},
		Target:         "bob",
	}))
	pm, ok := bob.last(EventPrivateMessage)
	require.True(t, ok)
	assert.Equal(t, "psst", pm.(MessagePayload).Text)

	// Remote private messages for users not held here vanish silently.
	alice.reset()
	r.DeliverRemote(envelope(fanout.TypePrivateMessage, "general", PrivatePayload{Target: "nobody"}))
	assert.Empty(t, alice.events)

	// Remote events never touch local membership.
	assert.Equal(t, []string{"alice"}, usernames(r.Directory().Snapshot("general")))
	assert.Equal(t, []string{"bob"}, usernames(r.Directory().Snapshot("tech")))
}

func TestRouter_ObserverSeesActivity(t *testing.T) {
	r := newTestRouter(t)
	obs := &recordingObserver{}
	r.SetObserver(obs)

	alice := join(t, r, "c1", "alice", "general")
	require.NoError(t, r.Message(alice.ID(), "hi"))
	_ = r.Message(alice.ID(), "/room general")
	require.NoError(t, r.Disconnect(alice.ID()))

	kinds := make([]ActivityKind, 0, len(obs.activities))
	for _, a := range obs.activities {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []ActivityKind{ActivityJoined, ActivityMessage, ActivityLeft}, kinds)
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidRoom, domain.ErrorTypeInvalidRoom},
		{domain.ErrSameRoom, domain.ErrorTypeSameRoom},
		{domain.ErrUsernameTaken, domain.ErrorTypeUsernameTaken},
		{domain.ErrUserNotFound, domain.ErrorTypeUserNotFound},
		{domain.ErrOutOfBounds, domain.ErrorTypeOutOfBounds},
		{editor.ErrDocumentTooLarge, domain.ErrorTypeValidation},
		{ErrMessageTooLong, domain.ErrorTypeValidation},
		{ErrNotIdentified, domain.ErrorTypeNotIdentified},
		{errors.New("boom"), domain.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorType(tt.err))
		})
	}
}
