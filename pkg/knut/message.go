package knut

import (
	"encoding/json"
)

// CapabilityID identifies a service area of the gateway.
type CapabilityID uint8

// Capability ids. Id 0 is reserved.
const (
	CapabilityNull        CapabilityID = 0x00
	CapabilityTemperature CapabilityID = 0x01
	CapabilityLight       CapabilityID = 0x02
	CapabilityTask        CapabilityID = 0x03
	CapabilityLocal       CapabilityID = 0x04
)

// String returns the capability name.
func (c CapabilityID) String() string {
	switch c {
	case CapabilityNull:
		return "null"
	case CapabilityTemperature:
		return "temperature"
	case CapabilityLight:
		return "light"
	case CapabilityTask:
		return "task"
	case CapabilityLocal:
		return "local"
	default:
		return "unknown"
	}
}

// MessageType identifies an operation within a capability.
// Values are scoped per capability; 0 is always NULL.
type MessageType uint16

// MessageNull is the reserved "no message" type. It is never sent as a
// request and is suppressed as a response.
const MessageNull MessageType = 0x0000

// Light capability message types.
const (
	LightStatusRequest  MessageType = 0x0001
	LightStatusResponse MessageType = 0x0101
	LightsRequest       MessageType = 0x0002
	LightsResponse      MessageType = 0x0102
	AllLightsRequest    MessageType = 0x0003
	AllLightsResponse   MessageType = 0x0103
	RoomsListRequest    MessageType = 0x0004
	RoomsListResponse   MessageType = 0x0104
	RoomRequest         MessageType = 0x0005
	RoomResponse        MessageType = 0x0105
)

// Task capability message types.
const (
	TaskRequest       MessageType = 0x0002
	TaskResponse      MessageType = 0x0102
	AllTasksRequest   MessageType = 0x0003
	AllTasksResponse  MessageType = 0x0103
	DeleteTaskRequest MessageType = 0x0004
	TaskReminder      MessageType = 0x0101
)

// Temperature capability message types.
const (
	TemperatureStatusRequest   MessageType = 0x0001
	TemperatureStatusResponse  MessageType = 0x0101
	TemperatureListRequest     MessageType = 0x0002
	TemperatureListResponse    MessageType = 0x0102
	TemperatureHistoryRequest  MessageType = 0x0003
	TemperatureHistoryResponse MessageType = 0x0103
)

// Local capability message types.
const (
	LocalRequest  MessageType = 0x0001
	LocalResponse MessageType = 0x0101
)

// MessageName returns a human-readable name for a message type within
// the given capability, for logging and diagnostics only.
func MessageName(cap CapabilityID, t MessageType) string {
	if t == MessageNull {
		return "NULL"
	}

	switch cap {
	case CapabilityLight:
		switch t {
		case LightStatusRequest:
			return "LIGHT_STATUS_REQUEST"
		case LightStatusResponse:
			return "LIGHT_STATUS_RESPONSE"
		case LightsRequest:
			return "LIGHTS_REQUEST"
		case LightsResponse:
			return "LIGHTS_RESPONSE"
		case AllLightsRequest:
			return "ALL_LIGHTS_REQUEST"
		case AllLightsResponse:
			return "ALL_LIGHTS_RESPONSE"
		case RoomsListRequest:
			return "ROOMS_LIST_REQUEST"
		case RoomsListResponse:
			return "ROOMS_LIST_RESPONSE"
		case RoomRequest:
			return "ROOM_REQUEST"
		case RoomResponse:
			return "ROOM_RESPONSE"
		}
	case CapabilityTask:
		switch t {
		case TaskRequest:
			return "TASK_REQUEST"
		case TaskResponse:
			return "TASK_RESPONSE"
		case AllTasksRequest:
			return "ALL_TASKS_REQUEST"
		case AllTasksResponse:
			return "ALL_TASKS_RESPONSE"
		case DeleteTaskRequest:
			return "DELETE_TASK_REQUEST"
		case TaskReminder:
			return "REMINDER"
		}
	case CapabilityTemperature:
		switch t {
		case TemperatureStatusRequest:
			return "TEMPERATURE_STATUS_REQUEST"
		case TemperatureStatusResponse:
			return "TEMPERATURE_STATUS_RESPONSE"
		case TemperatureListRequest:
			return "TEMPERATURE_LIST_REQUEST"
		case TemperatureListResponse:
			return "TEMPERATURE_LIST_RESPONSE"
		case TemperatureHistoryRequest:
			return "TEMPERATURE_HISTORY_REQUEST"
		case TemperatureHistoryResponse:
			return "TEMPERATURE_HISTORY_RESPONSE"
		}
	case CapabilityLocal:
		switch t {
		case LocalRequest:
			return "LOCAL_REQUEST"
		case LocalResponse:
			return "LOCAL_RESPONSE"
		}
	}

	return "UNKNOWN"
}

// Message is one Knut protocol envelope.
//
// JSON encoding:
//
//	{
//	  "capabilityId": 2,      // uint8
//	  "messageType": 257,     // uint16, 0 = NULL
//	  "payload": {...}        // operation-specific object
//	}
type Message struct {
	CapabilityID CapabilityID    `json:"capabilityId"`
	MessageType  MessageType     `json:"messageType"`
	Payload      json.RawMessage `json:"payload"`
}

// IsNull reports whether the message carries the reserved NULL type.
func (m Message) IsNull() bool {
	return m.MessageType == MessageNull
}
