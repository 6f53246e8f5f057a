// Package knut defines the JSON wire format for the Knut protocol.
//
// Every message, regardless of transport binding, is one JSON envelope:
//
//	{"capabilityId": 2, "messageType": 1, "payload": {...}}
//
// The capability id selects the service area (light, task, temperature,
// local); the message type selects an operation within it. Message type
// 0 is NULL: it is never transmitted as a request and a NULL response is
// suppressed rather than written to the wire.
//
// # ID Space
//
// Capability ids and message type ids are a compatibility contract
// between gateway and clients. They are small fixed integers defined as
// constants in this package and must not be renumbered.
//
// # Required Keys
//
// All three envelope keys are required. DecodeMessage reports a missing
// key as ErrIncompleteEnvelope so sessions can drop the single frame
// and keep the connection open.
package knut
