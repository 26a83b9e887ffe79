package fanout

import (
	"encoding/json"
	"fmt"
)

// EnvelopeType discriminates the messages sharing the fanout topic.
type EnvelopeType string

// Envelope types relayed between instances.
const (
	TypePublicMessage  EnvelopeType = "public_message"
	TypePrivateMessage EnvelopeType = "private_message"
	TypeUserJoined     EnvelopeType = "user_joined"
	TypeUserLeft       EnvelopeType = "user_left"
)

// Valid reports whether t is a known envelope type.
func (t EnvelopeType) Valid() bool {
	switch t {
	case TypePublicMessage, TypePrivateMessage, TypeUserJoined, TypeUserLeft:
		return true
	}
	return false
}

// Envelope is the wire format exchanged on the shared topic.
// SequenceNumber is per origin and only meant for debugging.
type Envelope struct {
	Type             EnvelopeType    `json:"type"`
	Room             string          `json:"room"`
	Payload          json.RawMessage `json:"payload"`
	OriginInstanceID string          `json:"originInstanceId"`
	SequenceNumber   uint64          `json:"sequenceNumber"`
}

// DecodePayload unmarshals the envelope payload into v.
func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Type.Valid() {
		return Envelope{}, fmt.Errorf("decode envelope: unknown type %q", env.Type)
	}
	if env.OriginInstanceID == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing origin")
	}
	return env, nil
}
