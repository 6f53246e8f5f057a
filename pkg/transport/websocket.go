package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/knut-protocol/knut-go/pkg/eventlog"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// wsWriteTimeout bounds a single WebSocket write or ping.
const wsWriteTimeout = 10 * time.Second

// wsAddr is the peer address reported by the HTTP layer.
type wsAddr string

func (a wsAddr) Network() string { return "websocket" }
func (a wsAddr) String() string  { return string(a) }

// wsFramer adapts a WebSocket connection to the Framer interface. One
// envelope travels per text message; liveness uses protocol-level pings
// instead of in-band heartbeat frames.
type wsFramer struct {
	ctx  context.Context
	conn *websocket.Conn
}

func newWSFramer(ctx context.Context, conn *websocket.Conn) *wsFramer {
	return &wsFramer{ctx: ctx, conn: conn}
}

func (f *wsFramer) ReadFrame() ([]byte, error) {
	_, data, err := f.conn.Read(f.ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (f *wsFramer) WriteFrame(payload []byte) error {
	ctx, cancel := context.WithTimeout(f.ctx, wsWriteTimeout)
	defer cancel()
	return f.conn.Write(ctx, websocket.MessageText, payload)
}

// WriteHeartbeat pings the peer and waits for the pong.
func (f *wsFramer) WriteHeartbeat() error {
	ctx, cancel := context.WithTimeout(f.ctx, wsWriteTimeout)
	defer cancel()
	return f.conn.Ping(ctx)
}

// WebSocketServer accepts WebSocket connections and runs one Session
// per client. Every request path upgrades; the server owns its port.
type WebSocketServer struct {
	config     ServerConfig
	httpServer *http.Server
	listener   net.Listener
	reg        *sessionRegistry

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWebSocketServer creates a Knut WebSocket transport server.
func NewWebSocketServer(config ServerConfig) (*WebSocketServer, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = DefaultWebSocketPingInterval
	}
	if config.EventLogger == nil {
		config.EventLogger = eventlog.NoopLogger{}
	}

	return &WebSocketServer{
		config: config,
		reg:    newSessionRegistry(),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *WebSocketServer) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: http.HandlerFunc(s.handleUpgrade)}

	s.running.Store(true)

	s.config.Logger.Info().
		Str("component", "transport").
		Str("mode", "websocket").
		Str("address", listener.Addr().String()).
		Msg("listening")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.running.Load() {
				s.config.Logger.Warn().
					Str("component", "transport").
					Err(err).
					Msg("websocket serve failed")
			}
		}
	}()

	return nil
}

// Stop stops the server and closes all sessions.
func (s *WebSocketServer) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)

	// Upgraded connections are hijacked from the HTTP server, so they
	// have to be closed through their sessions.
	s.reg.closeAll()
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

// Addr returns the server's listen address.
func (s *WebSocketServer) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// SessionCount returns the number of active sessions.
func (s *WebSocketServer) SessionCount() int {
	return s.reg.count()
}

// Broadcast sends an envelope to every live session.
func (s *WebSocketServer) Broadcast(msg knut.Message) {
	s.reg.broadcast(msg, s.config.Logger)
}

// handleUpgrade upgrades a request and serves the session to completion.
func (s *WebSocketServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if !s.running.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser clients on the local network connect from arbitrary
		// origins.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.config.Logger.Warn().
			Str("component", "transport").
			Str("remote", r.RemoteAddr).
			Err(err).
			Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(int64(s.config.MaxMessageSize))

	closeConn := func() error {
		return conn.Close(websocket.StatusNormalClosure, "")
	}

	framer := newWSFramer(s.ctx, conn)
	sess := newSession(&s.config, framer, closeConn, wsAddr(r.RemoteAddr), eventlog.BindingWebSocket)

	s.wg.Add(1)
	defer s.wg.Done()
	serveSession(s.ctx, &s.config, s.reg, sess)
}
