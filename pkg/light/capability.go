package light

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Capability serves the light protocol domain under capability id
// 0x02.
type Capability struct {
	svc    *Service
	logger zerolog.Logger
}

// NewCapability wraps a light service for dispatch.
func NewCapability(svc *Service, logger zerolog.Logger) *Capability {
	return &Capability{svc: svc, logger: logger}
}

// ID returns the light capability id.
func (c *Capability) ID() knut.CapabilityID { return knut.CapabilityLight }

// Name returns the capability name.
func (c *Capability) Name() string { return "light" }

// Handle processes one light request.
func (c *Capability) Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
	switch msgType {
	case knut.LightStatusRequest:
		return c.handleStatusRequest(payload)
	case knut.LightStatusResponse:
		return c.handleCommand(payload)
	case knut.LightsRequest:
		return knut.LightsResponse, lightsList{Lights: c.svc.Statuses()}
	case knut.AllLightsRequest:
		return knut.AllLightsResponse, fleetState{State: c.svc.Fleet()}
	case knut.AllLightsResponse:
		return c.handleSwitchAll(payload)
	case knut.RoomsListRequest:
		return knut.RoomsListResponse, roomsList{Rooms: c.svc.RoomsList()}
	case knut.RoomRequest:
		return c.handleRoomRequest(payload)
	default:
		c.logger.Debug().
			Str("component", "light").
			Str("message", knut.MessageName(knut.CapabilityLight, msgType)).
			Msg("unsupported message type")
		return knut.MessageNull, nil
	}
}

func (c *Capability) handleStatusRequest(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid status request")
		return knut.MessageNull, nil
	}

	status, err := c.svc.Status(req.ID)
	if err != nil {
		c.warn(err, "status request")
		return knut.MessageNull, nil
	}
	return knut.LightStatusResponse, status
}

func (c *Capability) handleCommand(payload json.RawMessage) (knut.MessageType, any) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		c.warn(err, "invalid status command")
		return knut.MessageNull, nil
	}

	status, err := c.svc.ApplyCommand(cmd)
	if err != nil {
		c.warn(err, "status command")
		return knut.MessageNull, nil
	}
	return knut.LightStatusResponse, status
}

func (c *Capability) handleSwitchAll(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid fleet command")
		return knut.MessageNull, nil
	}

	target, err := parseTargetState(req.State)
	if err != nil {
		c.warn(err, "invalid fleet command")
		return knut.MessageNull, nil
	}

	c.svc.SwitchAll(target)
	// The fleet push already carries the new aggregate.
	return knut.MessageNull, nil
}

func (c *Capability) handleRoomRequest(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		Room  string          `json:"room"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid room request")
		return knut.MessageNull, nil
	}

	target, err := parseTargetState(req.State)
	if err != nil {
		c.warn(err, "invalid room request")
		return knut.MessageNull, nil
	}

	roomStatus, err := c.svc.SwitchRoom(req.Room, target)
	if err != nil {
		c.warn(err, "room request")
		return knut.MessageNull, nil
	}
	return knut.RoomResponse, roomStatus
}

func (c *Capability) warn(err error, msg string) {
	c.logger.Warn().
		Str("component", "light").
		Err(err).
		Msg(msg)
}

// parseTargetState reads an on/off target. Booleans are canonical;
// aggregate names and the historical numeric encoding (1 = on) are
// accepted from older clients.
func parseTargetState(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, fmt.Errorf("state is missing")
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
		return false, fmt.Errorf("state %q is not switchable", name)
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num == 1, nil
	}

	return false, fmt.Errorf("state %s is not an on/off target", raw)
}

// lightsList is the LightsResponse payload.
type lightsList struct {
	Lights []Status `json:"lights"`
}

// roomsList is the RoomsListResponse payload.
type roomsList struct {
	Rooms map[string]Aggregate `json:"rooms"`
}

var _ capability.Capability = (*Capability)(nil)
