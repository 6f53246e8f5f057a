// Package capability routes decoded envelopes to the protocol domain
// that owns their capability id and carries domain pushes back out.
//
// A Capability handles one id. The Registry maps ids to capabilities
// and dispatches requests; the Pusher is the bounded channel on which
// capabilities publish unsolicited envelopes for fan-out to every
// connected client.
//
// # Dispatch contract
//
//   - Unknown capability id: the input envelope is returned unchanged
//     so a misdirected request is visible to the sender.
//   - Unknown message type or domain error: the capability answers
//     NULL, which the transport suppresses.
//   - Handler panic: recovered at the dispatch boundary, answered with
//     NULL. One broken handler never takes the gateway down.
package capability
