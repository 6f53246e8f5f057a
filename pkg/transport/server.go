package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/eventlog"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// ServerConfig configures a Knut transport server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080" or "127.0.0.1:8080").
	Address string

	// Mode selects the byte-stream framing. Ignored by the WebSocket
	// server.
	Mode Mode

	// HeartbeatInterval is the cadence of outbound heartbeats.
	// Zero selects the binding's default.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum frame payload size (default: 64KB).
	MaxMessageSize int

	// Logger for gateway logging. The zero value disables logging.
	Logger zerolog.Logger

	// EventLogger for protocol event capture (optional).
	EventLogger eventlog.Logger

	// OnConnect is called when a new session becomes active.
	OnConnect func(sess *Session)

	// OnDisconnect is called when a session has closed. err is nil for
	// a clean peer disconnect or local close.
	OnDisconnect func(sess *Session, err error)

	// OnMessage is called for every decoded envelope.
	OnMessage func(sess *Session, msg knut.Message)
}

// sessionRegistry tracks the live sessions of one server.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[*Session]struct{})}
}

func (r *sessionRegistry) add(sess *Session) {
	r.mu.Lock()
	r.sessions[sess] = struct{}{}
	r.mu.Unlock()
}

func (r *sessionRegistry) remove(sess *Session) {
	r.mu.Lock()
	delete(r.sessions, sess)
	r.mu.Unlock()
}

// snapshot copies the live session list so callers can iterate without
// holding the lock.
func (r *sessionRegistry) snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *sessionRegistry) closeAll() {
	for _, sess := range r.snapshot() {
		sess.Close()
	}
}

// broadcast sends an envelope to every live session. The session list
// is snapshotted first so a session closing mid-broadcast cannot
// disturb the iteration.
func (r *sessionRegistry) broadcast(msg knut.Message, logger zerolog.Logger) {
	if msg.IsNull() {
		return
	}

	for _, sess := range r.snapshot() {
		if err := sess.Send(msg); err != nil {
			logger.Debug().
				Str("component", "transport").
				Str("session", sess.ID()).
				Err(err).
				Msg("push not delivered")
		}
	}
}

// serveSession registers a session, serves its read loop to completion
// and cleans up afterwards. Shared by the TCP and WebSocket servers.
func serveSession(ctx context.Context, cfg *ServerConfig, reg *sessionRegistry, sess *Session) {
	sess.activate()
	reg.add(sess)

	cfg.Logger.Debug().
		Str("component", "transport").
		Str("session", sess.ID()).
		Str("remote", sess.remoteAddrString()).
		Msg("session active")

	if cfg.OnConnect != nil {
		cfg.OnConnect(sess)
	}

	sess.startHeartbeat(ctx, cfg.HeartbeatInterval)

	err := sess.readLoop()
	sess.Close()
	reg.remove(sess)

	cfg.Logger.Debug().
		Str("component", "transport").
		Str("session", sess.ID()).
		Err(err).
		Msg("session closed")

	if cfg.OnDisconnect != nil {
		cfg.OnDisconnect(sess, err)
	}
}

// Server accepts TCP connections and runs one Session per client.
type Server struct {
	config   ServerConfig
	listener net.Listener
	reg      *sessionRegistry

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a Knut transport server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.HeartbeatInterval == 0 {
		switch config.Mode {
		case ModePrefix:
			config.HeartbeatInterval = DefaultPrefixHeartbeatInterval
		default:
			config.HeartbeatInterval = DefaultStreamHeartbeatInterval
		}
	}
	if config.EventLogger == nil {
		config.EventLogger = eventlog.NoopLogger{}
	}

	return &Server{
		config: config,
		reg:    newSessionRegistry(),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)

	s.config.Logger.Info().
		Str("component", "transport").
		Str("mode", s.config.Mode.String()).
		Str("address", listener.Addr().String()).
		Msg("listening")

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all sessions.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	// Close listener to stop the accept loop
	if s.listener != nil {
		s.listener.Close()
	}

	s.reg.closeAll()
	s.wg.Wait()
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// SessionCount returns the number of active sessions.
func (s *Server) SessionCount() int {
	return s.reg.count()
}

// Broadcast sends an envelope to every live session.
func (s *Server) Broadcast(msg knut.Message) {
	s.reg.broadcast(msg, s.config.Logger)
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if s.running.Load() {
				s.config.Logger.Warn().
					Str("component", "transport").
					Err(err).
					Msg("accept failed")
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection runs one session to completion.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	framer := NewFramer(conn, s.config.Mode, s.config.MaxMessageSize)
	sess := newSession(&s.config, framer, conn.Close, conn.RemoteAddr(), s.config.Mode.binding())

	serveSession(s.ctx, &s.config, s.reg, sess)
}

// binding maps a framing mode to its event capture binding tag.
func (m Mode) binding() eventlog.Binding {
	switch m {
	case ModePrefix:
		return eventlog.BindingPrefix
	default:
		return eventlog.BindingStream
	}
}
