package transport

import (
	"context"
	"sync"
	"time"
)

// Heartbeat cadence defaults per binding.
const (
	// DefaultStreamHeartbeatInterval is the stream binding cadence.
	DefaultStreamHeartbeatInterval = 1 * time.Second

	// DefaultPrefixHeartbeatInterval is the length-prefixed binding cadence.
	DefaultPrefixHeartbeatInterval = 4 * time.Second

	// DefaultWebSocketPingInterval is the WebSocket ping cadence.
	DefaultWebSocketPingInterval = 30 * time.Second
)

// Heartbeat periodically emits a binding's liveness frame.
//
// The loop re-checks its running flag before every send, so a tick that
// races with Stop can never write into a torn-down session. Once
// stopped, a Heartbeat stays stopped.
type Heartbeat struct {
	interval time.Duration
	send     func() error
	onError  func(error)

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
}

// NewHeartbeat creates a heartbeat emitter. send is invoked on every
// tick; onError is invoked once if a send fails, after which the
// heartbeat stops itself.
func NewHeartbeat(interval time.Duration, send func() error, onError func(error)) *Heartbeat {
	if interval <= 0 {
		interval = DefaultStreamHeartbeatInterval
	}

	return &Heartbeat{
		interval: interval,
		send:     send,
		onError:  onError,
		stopCh:   make(chan struct{}),
	}
}

// Start begins emitting heartbeats. Starting a stopped heartbeat has
// no effect.
func (h *Heartbeat) Start(ctx context.Context) {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.loop(ctx)
}

// Stop stops the heartbeat permanently.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true

	if h.running {
		h.running = false
		close(h.stopCh)
	}
}

// IsRunning returns true if the heartbeat loop is active.
func (h *Heartbeat) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// loop emits heartbeats until stopped.
func (h *Heartbeat) loop(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			if !h.handleTick() {
				return
			}
		}
	}
}

// handleTick sends one heartbeat. Returns false when the loop must end.
func (h *Heartbeat) handleTick() bool {
	// A tick can race with Stop; never send after teardown.
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()

	if err := h.send(); err != nil {
		h.Stop()
		if h.onError != nil {
			h.onError(err)
		}
		return false
	}
	return true
}
