// Package eventlog captures Knut protocol activity as structured events.
//
// Every frame, decoded envelope, session state change, heartbeat and
// error can be recorded through the Logger interface. Events are small
// CBOR records with integer keys, cheap enough to capture on every
// message of a busy gateway.
//
// # Loggers
//
//	FileLogger     appends CBOR events to a capture file
//	ZerologAdapter mirrors events to a zerolog.Logger at debug level
//	MultiLogger    fans one event out to several loggers
//	NoopLogger     discards everything (the default)
//
// Capture files are read back with Reader; cmd/knut-log pretty-prints
// them.
package eventlog
