package eventlog

import (
	"time"
)

// Event is one protocol log record. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Binding is the transport binding the session runs on.
	Binding Binding `cbor:"4,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Raw frame bytes
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Decoded envelope
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session lifecycle
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Binding identifies the transport binding a session runs on.
type Binding uint8

const (
	// BindingStream is the null-terminated JSON stream binding.
	BindingStream Binding = 0
	// BindingPrefix is the 4-byte length-prefixed binding.
	BindingPrefix Binding = 1
	// BindingWebSocket is the WebSocket binding.
	BindingWebSocket Binding = 2
)

// String returns the binding name.
func (b Binding) String() string {
	switch b {
	case BindingStream:
		return "STREAM"
	case BindingPrefix:
		return "PREFIX"
	case BindingWebSocket:
		return "WEBSOCKET"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol envelope.
	CategoryMessage Category = 0
	// CategoryHeartbeat indicates a heartbeat frame.
	CategoryHeartbeat Category = 1
	// CategoryState indicates a session state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryHeartbeat:
		return "HEARTBEAT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame payload size in bytes (excluding delimiters).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol envelope.
type MessageEvent struct {
	// CapabilityID of the envelope.
	CapabilityID uint8 `cbor:"1,keyasint"`

	// MessageType of the envelope.
	MessageType uint16 `cbor:"2,keyasint"`

	// Name is the human-readable message type name.
	Name string `cbor:"3,keyasint,omitempty"`

	// Payload is the raw JSON payload.
	Payload []byte `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// Layer indicates where an error was observed.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerDispatch is the envelope decoding and routing layer.
	LayerDispatch Layer = 1
	// LayerCapability is the capability handler layer.
	LayerCapability Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerDispatch:
		return "DISPATCH"
	case LayerCapability:
		return "CAPABILITY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
