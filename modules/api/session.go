package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/example/presence-router-demo/modules/presence"
	"github.com/go-monolith/mono/pkg/types"
)

var errInvalidPayload = errors.New("invalid payload")

// session decodes the inbound frames of one connection and drives the router.
type session struct {
	conn   presence.Conn
	router *presence.Router
	guard  *Guard
	logger types.Logger
	now    func() time.Time
}

func newSession(conn presence.Conn, router *presence.Router, limits Limits, logger types.Logger) *session {
	return &session{
		conn:   conn,
		router: router,
		guard:  NewGuard(limits),
		logger: logger,
		now:    time.Now,
	}
}

// handle processes one inbound frame. It returns false when the connection
// must be closed.
func (s *session) handle(data []byte) bool {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
		s.sendError("malformed frame", domain.ErrorTypeInvalidPayload)
		return true
	}

	switch s.guard.Check(frame.Type, s.now()) {
	case Throttled:
		s.sendError("rate limit exceeded", domain.ErrorTypeRateLimited)
		return true
	case Abusive:
		s.logger.Warn("Closing abusive connection", "connectionID", s.conn.ID(), "event", frame.Type)
		s.sendError("too many rejected events, disconnecting", domain.ErrorTypeRateLimited)
		return false
	}

	err := s.dispatch(frame)
	switch {
	case err == nil:
	case errors.Is(err, errInvalidPayload):
		s.sendError(err.Error(), domain.ErrorTypeInvalidPayload)
	case errors.Is(err, presence.ErrUnknownConnection):
		s.logger.Error("Frame for unregistered connection", "connectionID", s.conn.ID(), "error", err)
	default:
		// The router has already reported the failure to the sender.
		s.logger.Debug("Event rejected", "connectionID", s.conn.ID(), "event", frame.Type, "error", err)
	}
	return true
}

func (s *session) dispatch(frame InboundFrame) error {
	id := s.conn.ID()

	switch frame.Type {
	case inUserConnected:
		var p UserConnectedPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return s.router.UserConnected(id, p.Username, p.Room)

	case inMessage:
		var p MessagePayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return s.router.Message(id, p.Text)

	case inPrivateMessage:
		var p PrivateMessagePayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return s.router.PrivateMessage(id, p.Target, p.Text)

	case inEditorUpdate:
		var p EditorUpdatePayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return s.router.EditorUpdate(id, p)

	case inEditorSyncRequest:
		return s.router.EditorSyncRequest(id)

	case inCursorPosition:
		var p CursorPositionPayload
		if err := decode(frame, &p); err != nil {
			return err
		}
		return s.router.CursorPosition(id, p.Position)
	}

	return fmt.Errorf("%w: unknown event %q", errInvalidPayload, frame.Type)
}

func decode(frame InboundFrame, v any) error {
	if err := json.Unmarshal(frame.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", errInvalidPayload, frame.Type, err)
	}
	return nil
}

func (s *session) sendError(message, kind string) {
	err := s.conn.Send(presence.EventError, presence.ErrorPayload{Message: message, Type: kind})
	if err != nil {
		s.logger.Debug("Failed to deliver error", "connectionID", s.conn.ID(), "error", err)
	}
}
