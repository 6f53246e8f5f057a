package task

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Capability serves the task protocol domain under capability id 0x03.
type Capability struct {
	svc    *Service
	logger zerolog.Logger
}

// NewCapability wraps a task service for dispatch.
func NewCapability(svc *Service, logger zerolog.Logger) *Capability {
	return &Capability{svc: svc, logger: logger}
}

// ID returns the task capability id.
func (c *Capability) ID() knut.CapabilityID { return knut.CapabilityTask }

// Name returns the capability name.
func (c *Capability) Name() string { return "task" }

// Handle processes one task request.
func (c *Capability) Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
	switch msgType {
	case knut.TaskRequest:
		return c.handleTaskRequest(payload)
	case knut.TaskResponse:
		return c.handleUpsert(payload)
	case knut.AllTasksRequest:
		return knut.AllTasksResponse, taskList{Tasks: c.svc.All()}
	case knut.DeleteTaskRequest:
		return c.handleDelete(payload)
	default:
		c.logger.Debug().
			Str("component", "task").
			Str("message", knut.MessageName(knut.CapabilityTask, msgType)).
			Msg("unsupported message type")
		return knut.MessageNull, nil
	}
}

func (c *Capability) handleTaskRequest(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid task request")
		return knut.MessageNull, nil
	}

	t, err := c.svc.Get(req.ID)
	if err != nil {
		c.warn(err, "task request")
		return knut.MessageNull, nil
	}
	return knut.TaskResponse, t
}

func (c *Capability) handleUpsert(payload json.RawMessage) (knut.MessageType, any) {
	var p Patch
	if err := json.Unmarshal(payload, &p); err != nil {
		c.warn(err, "invalid task update")
		return knut.MessageNull, nil
	}

	_, created, err := c.svc.Upsert(p)
	if err != nil {
		c.warn(err, "task update")
		return knut.MessageNull, nil
	}

	if created {
		return knut.AllTasksResponse, taskList{Tasks: c.svc.All()}
	}
	// The task push already carries the updated state.
	return knut.MessageNull, nil
}

func (c *Capability) handleDelete(payload json.RawMessage) (knut.MessageType, any) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		c.warn(err, "invalid delete request")
		return knut.MessageNull, nil
	}

	if err := c.svc.Delete(req.ID); err != nil {
		c.warn(err, "delete request")
		return knut.MessageNull, nil
	}
	return knut.AllTasksResponse, taskList{Tasks: c.svc.All()}
}

func (c *Capability) warn(err error, msg string) {
	c.logger.Warn().
		Str("component", "task").
		Err(err).
		Msg(msg)
}

// taskList is the AllTasksResponse payload.
type taskList struct {
	Tasks []Task `json:"tasks"`
}

var _ capability.Capability = (*Capability)(nil)
