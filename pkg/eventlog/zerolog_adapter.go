package eventlog

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter mirrors protocol events to a zerolog.Logger at debug
// level. Use it during development to watch protocol activity without
// writing a capture file.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates an adapter writing to the given logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event at debug level.
func (a *ZerologAdapter) Log(event Event) {
	e := a.logger.Debug().
		Str("session", event.SessionID).
		Str("direction", event.Direction.String()).
		Str("binding", event.Binding.String())

	if event.RemoteAddr != "" {
		e = e.Str("remote", event.RemoteAddr)
	}

	switch event.Category {
	case CategoryMessage:
		if event.Frame != nil {
			e.Int("size", event.Frame.Size).Msg("frame")
			return
		}
		if event.Message != nil {
			e = e.Uint8("capability", event.Message.CapabilityID).
				Str("type", event.Message.Name).
				Int("payloadSize", len(event.Message.Payload))
		}
		e.Msg("message")

	case CategoryHeartbeat:
		e.Msg("heartbeat")

	case CategoryState:
		if event.StateChange != nil {
			e = e.Str("from", event.StateChange.OldState).
				Str("to", event.StateChange.NewState)
			if event.StateChange.Reason != "" {
				e = e.Str("reason", event.StateChange.Reason)
			}
		}
		e.Msg("session state")

	case CategoryError:
		if event.Error != nil {
			e = e.Str("layer", event.Error.Layer.String()).
				Str("error", event.Error.Message)
			if event.Error.Context != "" {
				e = e.Str("context", event.Error.Context)
			}
		}
		e.Msg("protocol error")

	default:
		e.Msg("protocol event")
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZerologAdapter)(nil)
