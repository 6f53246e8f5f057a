package temperature

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Capability serves the temperature protocol domain under capability
// id 0x01.
type Capability struct {
	svc    *Service
	logger zerolog.Logger
}

// NewCapability wraps a temperature service for dispatch.
func NewCapability(svc *Service, logger zerolog.Logger) *Capability {
	return &Capability{svc: svc, logger: logger}
}

// ID returns the temperature capability id.
func (c *Capability) ID() knut.CapabilityID { return knut.CapabilityTemperature }

// Name returns the capability name.
func (c *Capability) Name() string { return "temperature" }

// Handle processes one temperature request.
func (c *Capability) Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
	switch msgType {
	case knut.TemperatureStatusRequest:
		return c.handleStatusRequest(payload)
	case knut.TemperatureListRequest:
		return knut.TemperatureListResponse, backendList{Backends: c.svc.Statuses()}
	case knut.TemperatureHistoryRequest:
		return c.handleHistoryRequest(payload)
	default:
		c.logger.Debug().
			Str("component", "temperature").
			Str("message", knut.MessageName(knut.CapabilityTemperature, msgType)).
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
	return knut.TemperatureStatusResponse, status
}

func (c *Capability) handleHistoryRequest(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid history request")
		return knut.MessageNull, nil
	}

	values, times, err := c.svc.History(req.ID)
	if err != nil {
		c.warn(err, "history request")
		return knut.MessageNull, nil
	}
	return knut.TemperatureHistoryResponse, historySeries{
		ID:          req.ID,
		Temperature: values,
		Time:        times,
	}
}

func (c *Capability) warn(err error, msg string) {
	c.logger.Warn().
		Str("component", "temperature").
		Err(err).
		Msg(msg)
}

// backendList is the TemperatureListResponse payload.
type backendList struct {
	Backends []Status `json:"backends"`
}

// historySeries is the TemperatureHistoryResponse payload: parallel
// series, oldest first.
type historySeries struct {
	ID          string    `json:"id"`
	Temperature []float64 `json:"temperature"`
	Time        []int64   `json:"time"`
}

var _ capability.Capability = (*Capability)(nil)
