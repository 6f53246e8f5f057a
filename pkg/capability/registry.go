package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// ErrDuplicateCapability indicates a second registration under an id
// that is already taken.
var ErrDuplicateCapability = errors.New("capability id already registered")

// Registry maps capability ids to their implementations and routes
// envelopes to them.
type Registry struct {
	logger zerolog.Logger

	mu           sync.RWMutex
	capabilities map[knut.CapabilityID]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:       logger,
		capabilities: make(map[knut.CapabilityID]Capability),
	}
}

// Register adds a capability. Registering an id twice is rejected; a
// silent replacement would leave the first implementation's pushes and
// timers orphaned.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if existing, ok := r.capabilities[id]; ok {
		return fmt.Errorf("%w: 0x%02X held by %s", ErrDuplicateCapability, uint8(id), existing.Name())
	}
	r.capabilities[id] = c

	r.logger.Debug().
		Str("component", "capability").
		Str("name", c.Name()).
		Uint8("id", uint8(id)).
		Msg("capability registered")
	return nil
}

// Get returns the capability registered under id.
func (r *Registry) Get(id knut.CapabilityID) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[id]
	return c, ok
}

// Capabilities returns all registered capabilities ordered by id.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Capability, 0, len(r.capabilities))
	for _, c := range r.capabilities {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Dispatch routes one envelope to its capability and returns the
// response envelope. A NULL result means nothing is to be written
// back.
func (r *Registry) Dispatch(msg knut.Message) (resp knut.Message) {
	c, ok := r.Get(msg.CapabilityID)
	if !ok {
		// Pass the input back unchanged so the sender can see the
		// request went nowhere.
		r.logger.Warn().
			Str("component", "capability").
			Uint8("id", uint8(msg.CapabilityID)).
			Msg("request for unknown capability")
		return msg
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("component", "capability").
				Str("name", c.Name()).
				Str("message", knut.MessageName(msg.CapabilityID, msg.MessageType)).
				Interface("panic", rec).
				Msg("handler panicked")
			resp = nullResponse(msg.CapabilityID)
		}
	}()

	respType, payload := c.Handle(msg.MessageType, msg.Payload)
	if respType == knut.MessageNull {
		return nullResponse(msg.CapabilityID)
	}

	out, err := knut.NewMessage(msg.CapabilityID, respType, payload)
	if err != nil {
		r.logger.Warn().
			Str("component", "capability").
			Str("name", c.Name()).
			Err(err).
			Msg("response payload not encodable")
		return nullResponse(msg.CapabilityID)
	}
	return out
}

func nullResponse(id knut.CapabilityID) knut.Message {
	return knut.Message{CapabilityID: id, MessageType: knut.MessageNull}
}
