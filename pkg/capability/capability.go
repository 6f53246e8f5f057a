package capability

import (
	"encoding/json"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Capability is one protocol domain served under a capability id.
//
// Handle processes a single request payload and returns the response
// message type with its payload value. Returning knut.MessageNull
// means there is nothing to answer. Handle must be safe for concurrent
// calls; sessions dispatch independently.
type Capability interface {
	// ID returns the capability id the implementation serves.
	ID() knut.CapabilityID

	// Name returns the human-readable capability name.
	Name() string

	// Handle processes one request and returns the response type and
	// payload.
	Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any)
}

// Publisher carries unsolicited envelopes from a capability to every
// connected client.
type Publisher interface {
	// Publish queues one push envelope. Publishing never blocks; when
	// the queue is full the envelope is dropped.
	Publish(cap knut.CapabilityID, msgType knut.MessageType, payload any)
}
