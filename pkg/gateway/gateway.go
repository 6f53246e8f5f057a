package gateway

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/config"
	"github.com/knut-protocol/knut-go/pkg/discovery"
	"github.com/knut-protocol/knut-go/pkg/eventlog"
	"github.com/knut-protocol/knut-go/pkg/knut"
	"github.com/knut-protocol/knut-go/pkg/light"
	"github.com/knut-protocol/knut-go/pkg/local"
	"github.com/knut-protocol/knut-go/pkg/task"
	"github.com/knut-protocol/knut-go/pkg/temperature"
	"github.com/knut-protocol/knut-go/pkg/transport"
)

// server is the surface shared by the TCP and WebSocket servers.
type server interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	SessionCount() int
	Broadcast(msg knut.Message)
}

// namedServer pairs a server with its binding name.
type namedServer struct {
	name string
	server
}

// Gateway is the server context: it owns the capability registry, the
// push queue, the capability services and every enabled transport
// server.
type Gateway struct {
	config config.Config
	logger zerolog.Logger

	events      eventlog.Logger
	eventsClose func() error

	registry *capability.Registry
	pusher   *capability.Pusher

	lights      *light.Service
	tasks       *task.Service
	temperature *temperature.Service
	local       *local.Service // nil when no location is configured

	servers    []namedServer
	advertiser *discovery.Advertiser

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a gateway from its configuration. Nothing is started yet;
// call Start.
func New(cfg config.Config, logger zerolog.Logger) (*Gateway, error) {
	g := &Gateway{
		config:   cfg,
		logger:   logger,
		events:   eventlog.NoopLogger{},
		registry: capability.NewRegistry(logger),
		pusher:   capability.NewPusher(0, logger),
	}

	if cfg.Log.Capture != "" {
		file, err := eventlog.NewFileLogger(cfg.Log.Capture)
		if err != nil {
			return nil, fmt.Errorf("open event capture: %w", err)
		}
		g.events = eventlog.NewMultiLogger(file, eventlog.NewZerologAdapter(logger))
		g.eventsClose = file.Close
	}

	if err := g.buildCapabilities(); err != nil {
		return nil, err
	}
	if err := g.buildServers(); err != nil {
		return nil, err
	}

	if cfg.Discovery.Enabled {
		g.advertiser = discovery.NewAdvertiser(discovery.Config{
			Instance:  cfg.Discovery.Instance,
			Interface: cfg.Discovery.Interface,
			Logger:    logger,
		})
	}

	return g, nil
}

// buildCapabilities constructs the capability services from the
// configuration and registers them.
func (g *Gateway) buildCapabilities() error {
	g.lights = light.NewService(g.pusher, g.logger)
	backend := light.NewDummyBackend(g.logger)
	for _, lc := range g.config.Lights {
		err := g.lights.AddLight(light.Config{
			ID:             lc.ID,
			Location:       lc.Location,
			Room:           lc.Room,
			HasDimlevel:    lc.HasDimlevel,
			HasTemperature: lc.HasTemperature,
			HasColor:       lc.HasColor,
			ColorCold:      lc.ColorCold,
			ColorWarm:      lc.ColorWarm,
			Backend:        backend,
		})
		if err != nil {
			return fmt.Errorf("light %s: %w", lc.ID, err)
		}
	}

	g.tasks = task.NewService(task.NewStore(g.config.Tasks.Dir, g.logger), g.pusher, g.logger)

	g.temperature = temperature.NewService(temperature.Config{
		PollInterval: g.config.Temperature.PollInterval.Duration(),
		HistorySize:  g.config.Temperature.HistorySize,
	}, g.pusher, g.logger)
	for _, bc := range g.config.Temperature.Backends {
		if err := g.temperature.AddBackend(temperature.NewDummyBackend(bc.ID, bc.Location)); err != nil {
			return fmt.Errorf("temperature backend %s: %w", bc.ID, err)
		}
	}

	capabilities := []capability.Capability{
		temperature.NewCapability(g.temperature, g.logger),
		light.NewCapability(g.lights, g.logger),
		task.NewCapability(g.tasks, g.logger),
	}

	if loc := g.config.Location; loc.ID != "" {
		g.local = local.NewService(local.Config{
			ID:        loc.ID,
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Elevation: loc.Elevation,
		}, g.pusher, g.logger)
		capabilities = append(capabilities, local.NewCapability(g.local, g.logger))
	}

	for _, c := range capabilities {
		if err := g.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// buildServers constructs one transport server per enabled binding.
func (g *Gateway) buildServers() error {
	serverConfig := func(b config.Binding, mode transport.Mode) transport.ServerConfig {
		return transport.ServerConfig{
			Address:           b.Address,
			Mode:              mode,
			HeartbeatInterval: b.Heartbeat.Duration(),
			MaxMessageSize:    g.config.Server.MaxMessageSize,
			Logger:            g.logger,
			EventLogger:       g.events,
			OnMessage:         g.handleMessage,
		}
	}

	if b := g.config.Server.Stream; b.Enabled {
		srv, err := transport.NewServer(serverConfig(b, transport.ModeStream))
		if err != nil {
			return fmt.Errorf("stream binding: %w", err)
		}
		g.servers = append(g.servers, namedServer{"stream", srv})
	}
	if b := g.config.Server.Prefix; b.Enabled {
		srv, err := transport.NewServer(serverConfig(b, transport.ModePrefix))
		if err != nil {
			return fmt.Errorf("prefix binding: %w", err)
		}
		g.servers = append(g.servers, namedServer{"prefix", srv})
	}
	if b := g.config.Server.WebSocket; b.Enabled {
		srv, err := transport.NewWebSocketServer(serverConfig(b, transport.ModeStream))
		if err != nil {
			return fmt.Errorf("websocket binding: %w", err)
		}
		g.servers = append(g.servers, namedServer{"websocket", srv})
	}
	return nil
}

// handleMessage routes one inbound envelope through the registry and
// writes a non-NULL response back on the same session.
func (g *Gateway) handleMessage(sess *transport.Session, msg knut.Message) {
	resp := g.registry.Dispatch(msg)
	if resp.IsNull() {
		return
	}
	if err := sess.Send(resp); err != nil {
		g.logger.Debug().
			Str("component", "gateway").
			Str("session", sess.ID()).
			Err(err).
			Msg("response not delivered")
	}
}

// Start brings up the capabilities, then the transport servers, the
// broadcast loop and the mDNS advertisement.
func (g *Gateway) Start(ctx context.Context) error {
	if g.running.Load() {
		return fmt.Errorf("gateway already running")
	}

	ctx, g.cancel = context.WithCancel(ctx)

	if err := g.tasks.Load(); err != nil {
		g.cancel()
		return err
	}
	g.temperature.Start(ctx)
	if g.local != nil {
		g.local.Start()
	}

	for i, srv := range g.servers {
		if err := srv.Start(ctx); err != nil {
			for _, started := range g.servers[:i] {
				started.Stop()
			}
			g.stopCapabilities()
			g.cancel()
			return fmt.Errorf("%s binding: %w", srv.name, err)
		}
	}

	g.running.Store(true)

	g.wg.Add(1)
	go g.broadcastLoop(ctx)

	g.advertise()

	g.logger.Info().
		Str("component", "gateway").
		Int("capabilities", len(g.registry.Capabilities())).
		Int("bindings", len(g.servers)).
		Msg("gateway up")
	return nil
}

// Stop tears the gateway down in reverse start order. Safe to call
// more than once.
func (g *Gateway) Stop() {
	if !g.running.CompareAndSwap(true, false) {
		return
	}

	if g.advertiser != nil {
		g.advertiser.Stop()
	}
	for _, srv := range g.servers {
		srv.Stop()
	}

	g.cancel()
	g.wg.Wait()
	g.pusher.Close()

	g.stopCapabilities()

	if g.eventsClose != nil {
		g.eventsClose()
	}

	g.logger.Info().
		Str("component", "gateway").
		Msg("gateway down")
}

func (g *Gateway) stopCapabilities() {
	if g.local != nil {
		g.local.Stop()
	}
	g.temperature.Stop()
	g.tasks.Stop()
}

// broadcastLoop drains the push queue into every transport server.
func (g *Gateway) broadcastLoop(ctx context.Context) {
	defer g.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.pusher.Messages():
			for _, srv := range g.servers {
				srv.Broadcast(msg)
			}
		}
	}
}

// advertise announces every running binding via mDNS. Advertisement
// failures are logged, not fatal; the gateway serves without it.
func (g *Gateway) advertise() {
	if g.advertiser == nil {
		return
	}
	for _, srv := range g.servers {
		tcp, ok := srv.Addr().(*net.TCPAddr)
		if !ok {
			continue
		}
		if err := g.advertiser.Advertise(srv.name, tcp.Port); err != nil {
			g.logger.Warn().
				Str("component", "gateway").
				Str("binding", srv.name).
				Err(err).
				Msg("mDNS advertisement failed")
		}
	}
}

// Addrs returns the listen address of every running binding.
func (g *Gateway) Addrs() map[string]net.Addr {
	addrs := make(map[string]net.Addr, len(g.servers))
	for _, srv := range g.servers {
		if a := srv.Addr(); a != nil {
			addrs[srv.name] = a
		}
	}
	return addrs
}

// SessionCount returns the number of connected clients across all
// bindings.
func (g *Gateway) SessionCount() int {
	n := 0
	for _, srv := range g.servers {
		n += srv.SessionCount()
	}
	return n
}

// Registry exposes the capability registry, for embedding the gateway
// in a larger program.
func (g *Gateway) Registry() *capability.Registry {
	return g.registry
}
