package capability

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// DefaultPushBuffer is the default push queue capacity.
const DefaultPushBuffer = 256

// Pusher is a bounded queue of outbound push envelopes. Capabilities
// publish into it from handler and timer goroutines; the gateway's
// broadcast loop drains it. Publishing never blocks: when the queue is
// full the envelope is dropped with a warning.
type Pusher struct {
	logger zerolog.Logger
	ch     chan knut.Message
	closed atomic.Bool
}

// NewPusher creates a pusher. capacity <= 0 selects DefaultPushBuffer.
func NewPusher(capacity int, logger zerolog.Logger) *Pusher {
	if capacity <= 0 {
		capacity = DefaultPushBuffer
	}
	return &Pusher{
		logger: logger,
		ch:     make(chan knut.Message, capacity),
	}
}

// Publish queues one push envelope. NULL envelopes and envelopes with
// unencodable payloads are discarded.
func (p *Pusher) Publish(cap knut.CapabilityID, msgType knut.MessageType, payload any) {
	if p.closed.Load() || msgType == knut.MessageNull {
		return
	}

	msg, err := knut.NewMessage(cap, msgType, payload)
	if err != nil {
		p.logger.Warn().
			Str("component", "capability").
			Str("message", knut.MessageName(cap, msgType)).
			Err(err).
			Msg("push payload not encodable")
		return
	}

	select {
	case p.ch <- msg:
	default:
		p.logger.Warn().
			Str("component", "capability").
			Str("message", knut.MessageName(cap, msgType)).
			Msg("push queue full, dropping")
	}
}

// Messages returns the channel the broadcast loop drains.
func (p *Pusher) Messages() <-chan knut.Message {
	return p.ch
}

// Close stops accepting publishes. The channel itself stays open;
// publishers may still hold a reference while the gateway shuts down.
func (p *Pusher) Close() {
	p.closed.Store(true)
}

var _ Publisher = (*Pusher)(nil)
