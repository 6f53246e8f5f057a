package knut

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrIncompleteEnvelope indicates a decoded envelope is missing at
// least one of the required keys capabilityId, messageType or payload.
var ErrIncompleteEnvelope = errors.New("envelope is missing a required key")

// emptyPayload is written for messages constructed without a payload so
// the envelope always carries all three keys.
var emptyPayload = json.RawMessage(`{}`)

// NewMessage builds an envelope, JSON-encoding the payload value.
// A nil payload becomes the empty object.
func NewMessage(cap CapabilityID, t MessageType, payload any) (Message, error) {
	msg := Message{
		CapabilityID: cap,
		MessageType:  t,
		Payload:      emptyPayload,
	}

	if payload == nil {
		return msg, nil
	}

	if raw, ok := payload.(json.RawMessage); ok {
		if len(raw) > 0 {
			msg.Payload = raw
		}
		return msg, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding payload: %w", err)
	}
	msg.Payload = data
	return msg, nil
}

// EncodeMessage serializes an envelope to its wire form. A nil payload
// is replaced by the empty object.
func EncodeMessage(msg Message) ([]byte, error) {
	if len(msg.Payload) == 0 {
		msg.Payload = emptyPayload
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// DecodeMessage parses one envelope from its wire form. All three keys
// must be present; a missing key yields ErrIncompleteEnvelope so the
// caller can drop the frame without closing the connection.
func DecodeMessage(data []byte) (Message, error) {
	var raw struct {
		CapabilityID *CapabilityID   `json:"capabilityId"`
		MessageType  *MessageType    `json:"messageType"`
		Payload      json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, fmt.Errorf("decoding envelope: %w", err)
	}

	if raw.CapabilityID == nil || raw.MessageType == nil || raw.Payload == nil {
		return Message{}, ErrIncompleteEnvelope
	}

	return Message{
		CapabilityID: *raw.CapabilityID,
		MessageType:  *raw.MessageType,
		Payload:      raw.Payload,
	}, nil
}
