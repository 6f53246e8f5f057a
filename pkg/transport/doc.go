// Package transport implements the Knut transport bindings and the
// per-connection session machinery.
//
// Two byte-stream bindings carry the JSON envelope over TCP:
//
//   - Stream: each envelope is terminated by a single 0x00 sentinel
//     byte; a bare sentinel is the heartbeat.
//   - Prefix: a 4-byte big-endian length precedes each envelope; a
//     zero length is the heartbeat.
//
// A third binding carries one envelope per WebSocket text message,
// with WebSocket ping frames for liveness.
//
// All bindings expose identical dispatch semantics. A Server accepts
// connections and runs one Session per client: a read loop decoding
// envelopes, a heartbeat emitter with an explicit stop token, and a
// mutex-serialized write path shared by responses and pushes.
//
// # Session Lifecycle
//
//	Connecting -> Active -> Closing -> Closed
//
// A malformed envelope drops the single frame and keeps the session
// open. Framing violations (oversize or truncated frames), read errors
// and write errors close the session.
package transport
