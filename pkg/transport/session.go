package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/knut-protocol/knut-go/pkg/eventlog"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// ErrSessionClosed indicates a send on a session that is no longer active.
var ErrSessionClosed = errors.New("session is closed")

// SessionState represents the lifecycle state of a session.
type SessionState int32

const (
	// StateConnecting means the connection was accepted but the session
	// is not yet serving messages.
	StateConnecting SessionState = iota

	// StateActive means the read loop and heartbeat are running.
	StateActive

	// StateClosing means teardown has begun.
	StateClosing

	// StateClosed is the terminal state.
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one client connection to the gateway.
//
// All outbound traffic (responses, pushes, heartbeats) passes through a
// single mutex-serialized write path so concurrent producers never
// interleave bytes mid-frame.
type Session struct {
	id      string
	framer  Framer
	binding eventlog.Binding
	remote  net.Addr
	cfg     *ServerConfig

	// closeConn closes the underlying transport connection.
	closeConn func() error

	state     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
	heartbeat *Heartbeat
}

// newSession creates a session in the Connecting state.
func newSession(cfg *ServerConfig, framer Framer, closeConn func() error, remote net.Addr, binding eventlog.Binding) *Session {
	s := &Session{
		id:        uuid.New().String(),
		framer:    framer,
		binding:   binding,
		remote:    remote,
		cfg:       cfg,
		closeConn: closeConn,
		closeCh:   make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the remote address of the client.
func (s *Session) RemoteAddr() net.Addr {
	return s.remote
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// activate transitions the session from Connecting to Active.
func (s *Session) activate() {
	if s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		s.logState(StateConnecting.String(), StateActive.String(), "")
	}
}

// Send writes one envelope to the client. NULL messages are suppressed
// without error. A write failure closes the session.
func (s *Session) Send(msg knut.Message) error {
	if msg.IsNull() {
		return nil
	}
	if s.State() != StateActive {
		return ErrSessionClosed
	}

	data, err := knut.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	s.writeMu.Lock()
	err = s.framer.WriteFrame(data)
	s.writeMu.Unlock()

	if err != nil {
		// Peer gone; the session is no longer usable.
		s.logError(eventlog.LayerTransport, err, "write")
		s.Close()
		return fmt.Errorf("writing frame: %w", err)
	}

	s.logMessage(eventlog.DirectionOut, msg, data)
	return nil
}

// sendHeartbeat writes one liveness frame.
func (s *Session) sendHeartbeat() error {
	if s.State() != StateActive {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	err := s.framer.WriteHeartbeat()
	s.writeMu.Unlock()

	if err != nil {
		return err
	}

	s.logHeartbeat(eventlog.DirectionOut)
	return nil
}

// Close tears the session down. It is safe to call multiple times and
// from any goroutine.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		old := s.State().String()
		s.state.Store(int32(StateClosing))

		if s.heartbeat != nil {
			s.heartbeat.Stop()
		}
		close(s.closeCh)
		err = s.closeConn()

		s.state.Store(int32(StateClosed))
		s.logState(old, StateClosed.String(), "")
	})
	return err
}

// readLoop reads frames until the session ends. Returns the error that
// ended the loop, or nil for a clean disconnect or local close.
func (s *Session) readLoop() error {
	for {
		select {
		case <-s.closeCh:
			return nil
		default:
		}

		payload, err := s.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Peer disconnected.
				return nil
			}
			select {
			case <-s.closeCh:
				// Local close raced the blocking read.
				return nil
			default:
			}
			s.logError(eventlog.LayerTransport, err, "read")
			return err
		}

		if len(payload) == 0 {
			s.logHeartbeat(eventlog.DirectionIn)
			continue
		}

		msg, err := knut.DecodeMessage(payload)
		if err != nil {
			// A single bad frame is recoverable; drop it, keep reading.
			s.cfg.Logger.Warn().
				Str("component", "transport").
				Str("session", s.id).
				Err(err).
				Msg("dropping malformed frame")
			s.logError(eventlog.LayerDispatch, err, "decode")
			continue
		}

		s.logMessage(eventlog.DirectionIn, msg, payload)

		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(s, msg)
		}
	}
}

// startHeartbeat arms the session's heartbeat emitter.
func (s *Session) startHeartbeat(ctx context.Context, interval time.Duration) {
	s.heartbeat = NewHeartbeat(interval, s.sendHeartbeat, func(err error) {
		s.logError(eventlog.LayerTransport, err, "heartbeat")
		s.Close()
	})
	s.heartbeat.Start(ctx)
}

// logMessage records a decoded envelope in the event capture.
func (s *Session) logMessage(dir eventlog.Direction, msg knut.Message, raw []byte) {
	s.cfg.EventLogger.Log(eventlog.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Direction:  dir,
		Binding:    s.binding,
		Category:   eventlog.CategoryMessage,
		RemoteAddr: s.remoteAddrString(),
		Message: &eventlog.MessageEvent{
			CapabilityID: uint8(msg.CapabilityID),
			MessageType:  uint16(msg.MessageType),
			Name:         knut.MessageName(msg.CapabilityID, msg.MessageType),
			Payload:      msg.Payload,
		},
	})
}

// logHeartbeat records a heartbeat in the event capture.
func (s *Session) logHeartbeat(dir eventlog.Direction) {
	s.cfg.EventLogger.Log(eventlog.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Direction:  dir,
		Binding:    s.binding,
		Category:   eventlog.CategoryHeartbeat,
		RemoteAddr: s.remoteAddrString(),
	})
}

// logState records a session state change in the event capture.
func (s *Session) logState(from, to, reason string) {
	s.cfg.EventLogger.Log(eventlog.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Binding:    s.binding,
		Category:   eventlog.CategoryState,
		RemoteAddr: s.remoteAddrString(),
		StateChange: &eventlog.StateChangeEvent{
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

// logError records an error in the event capture.
func (s *Session) logError(layer eventlog.Layer, err error, context string) {
	s.cfg.EventLogger.Log(eventlog.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Binding:    s.binding,
		Category:   eventlog.CategoryError,
		RemoteAddr: s.remoteAddrString(),
		Error: &eventlog.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}

func (s *Session) remoteAddrString() string {
	if s.remote == nil {
		return ""
	}
	return s.remote.String()
}
