package local

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Capability serves the local protocol domain under capability id
// 0x04.
type Capability struct {
	svc    *Service
	logger zerolog.Logger
}

// NewCapability wraps a location service for dispatch.
func NewCapability(svc *Service, logger zerolog.Logger) *Capability {
	return &Capability{svc: svc, logger: logger}
}

// ID returns the local capability id.
func (c *Capability) ID() knut.CapabilityID { return knut.CapabilityLocal }

// Name returns the capability name.
func (c *Capability) Name() string { return "local" }

// Handle processes one local request. LocalRequest carries no payload
// and always answers with the current status.
func (c *Capability) Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
	switch msgType {
	case knut.LocalRequest:
		return knut.LocalResponse, c.svc.Status()
	default:
		c.logger.Debug().
			Str("component", "local").
			Str("message", knut.MessageName(knut.CapabilityLocal, msgType)).
			Msg("unsupported message type")
		return knut.MessageNull, nil
	}
}

var _ capability.Capability = (*Capability)(nil)
