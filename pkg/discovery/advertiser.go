package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/version"
)

// Service type and domain the gateway announces under.
const (
	ServiceType = "_knut._tcp"
	Domain      = "local."
)

// DefaultTTL is the DNS record TTL.
const DefaultTTL = 120 * time.Second

// maxInstanceLen caps instance names at the DNS label limit.
const maxInstanceLen = 63

// Config configures the advertiser.
type Config struct {
	// Instance is the base instance name; the binding name is
	// appended per advertisement.
	Instance string

	// Interface restricts advertising to one network interface.
	// Empty advertises on all interfaces.
	Interface string

	// TTL is the DNS record TTL. Zero selects DefaultTTL.
	TTL time.Duration

	// Logger for gateway logging. The zero value disables logging.
	Logger zerolog.Logger
}

// Advertiser announces the gateway's bindings via mDNS.
type Advertiser struct {
	config Config

	mu      sync.Mutex
	servers map[string]*zeroconf.Server
}

// NewAdvertiser creates an mDNS advertiser for the gateway.
func NewAdvertiser(config Config) *Advertiser {
	if config.Instance == "" {
		config.Instance = "knut"
	}
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	return &Advertiser{
		config:  config,
		servers: make(map[string]*zeroconf.Server),
	}
}

// Advertise announces one binding on the given port, replacing an
// earlier announcement of the same binding.
func (a *Advertiser) Advertise(binding string, port int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if server, ok := a.servers[binding]; ok {
		server.Shutdown()
		delete(a.servers, binding)
	}

	opts := []zeroconf.ServerOption{
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	}

	server, err := zeroconf.Register(
		instanceName(a.config.Instance, binding),
		ServiceType,
		Domain,
		port,
		bindingTXT(binding),
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("advertise %s binding: %w", binding, err)
	}
	a.servers[binding] = server

	a.config.Logger.Info().
		Str("component", "discovery").
		Str("binding", binding).
		Int("port", port).
		Msg("announced")
	return nil
}

// Stop withdraws every announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for binding, server := range a.servers {
		server.Shutdown()
		delete(a.servers, binding)
	}
}

// interfaces returns the interfaces to advertise on; nil means all.
func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		a.config.Logger.Warn().
			Str("component", "discovery").
			Str("interface", a.config.Interface).
			Err(err).
			Msg("interface not found, advertising on all")
		return nil
	}
	return []net.Interface{*iface}
}

// instanceName builds the per-binding instance name within the DNS
// label limit.
func instanceName(instance, binding string) string {
	name := instance + "-" + binding
	if len(name) > maxInstanceLen {
		name = name[:maxInstanceLen]
	}
	return name
}

// bindingTXT builds the TXT records for one binding.
func bindingTXT(binding string) []string {
	return []string{
		"txtvers=1",
		"binding=" + binding,
		"version=" + version.Current,
	}
}
