package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// ClientConfig configures an outbound Knut connection.
type ClientConfig struct {
	// Mode selects the byte-stream framing. Ignored by DialWebSocket.
	Mode Mode

	// HeartbeatInterval is the cadence of outbound heartbeats.
	// Zero disables client-side heartbeats.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum frame payload size (default: 64KB).
	MaxMessageSize int

	// Logger for client logging. The zero value disables logging.
	Logger zerolog.Logger

	// OnMessage is called for every decoded envelope, responses and
	// pushes alike.
	OnMessage func(msg knut.Message)

	// OnDisconnect is called once when the connection has closed. err
	// is nil for a clean peer disconnect or local close.
	OnDisconnect func(err error)
}

// Conn is an outbound connection to a Knut gateway.
type Conn struct {
	config    ClientConfig
	framer    Framer
	closeConn func() error
	cancel    context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
	heartbeat *Heartbeat
	wg        sync.WaitGroup
}

// Dial connects to a gateway over TCP using the configured framing
// mode.
func Dial(ctx context.Context, addr string, config ClientConfig) (*Conn, error) {
	var dialer net.Dialer
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	framer := NewFramer(netConn, config.Mode, config.MaxMessageSize)

	return newConn(config, framer, netConn.Close, nil), nil
}

// DialWebSocket connects to a gateway over WebSocket. url uses the
// ws:// or wss:// scheme.
func DialWebSocket(ctx context.Context, url string, config ClientConfig) (*Conn, error) {
	wsConn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	wsConn.SetReadLimit(int64(config.MaxMessageSize))

	// The connection outlives the dial context.
	connCtx, cancel := context.WithCancel(context.Background())
	framer := newWSFramer(connCtx, wsConn)
	closeConn := func() error {
		return wsConn.Close(websocket.StatusNormalClosure, "")
	}

	return newConn(config, framer, closeConn, cancel), nil
}

func newConn(config ClientConfig, framer Framer, closeConn func() error, cancel context.CancelFunc) *Conn {
	c := &Conn{
		config:    config,
		framer:    framer,
		closeConn: closeConn,
		cancel:    cancel,
		closeCh:   make(chan struct{}),
	}

	if config.HeartbeatInterval > 0 {
		c.heartbeat = NewHeartbeat(config.HeartbeatInterval, c.sendHeartbeat, func(err error) {
			c.config.Logger.Warn().
				Str("component", "transport").
				Err(err).
				Msg("heartbeat failed, closing connection")
			c.Close()
		})
		c.heartbeat.Start(context.Background())
	}

	c.wg.Add(1)
	go c.readLoop()

	return c
}

// Send encodes and writes an envelope.
func (c *Conn) Send(msg knut.Message) error {
	select {
	case <-c.closeCh:
		return ErrSessionClosed
	default:
	}

	data, err := knut.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.framer.WriteFrame(data); err != nil {
		c.Close()
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (c *Conn) sendHeartbeat() error {
	select {
	case <-c.closeCh:
		return ErrSessionClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.framer.WriteHeartbeat()
}

// Close closes the connection. Safe to call multiple times.
func (c *Conn) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		if c.heartbeat != nil {
			c.heartbeat.Stop()
		}
		close(c.closeCh)
		if c.cancel != nil {
			c.cancel()
		}
		closeErr = c.closeConn()
	})
	return closeErr
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.closeCh
}

// Wait blocks until the read loop has finished.
func (c *Conn) Wait() {
	c.wg.Wait()
}

func (c *Conn) readLoop() {
	defer c.wg.Done()

	err := c.run()
	c.Close()
	if c.config.OnDisconnect != nil {
		c.config.OnDisconnect(err)
	}
}

func (c *Conn) run() error {
	for {
		select {
		case <-c.closeCh:
			return nil
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				return nil
			default:
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		// Empty frames are peer heartbeats.
		if len(data) == 0 {
			continue
		}

		msg, err := knut.DecodeMessage(data)
		if err != nil {
			c.config.Logger.Warn().
				Str("component", "transport").
				Err(err).
				Msg("dropping malformed frame")
			continue
		}

		if c.config.OnMessage != nil {
			c.config.OnMessage(msg)
		}
	}
}
