package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/enbility/zeroconf/v3"
)

// Gateway is one discovered gateway binding.
type Gateway struct {
	Instance  string
	Binding   string
	Version   string
	Host      string
	Port      int
	Addresses []string
}

// Addr returns a dialable address, preferring the first resolved IP
// over the mDNS hostname.
func (g Gateway) Addr() string {
	host := g.Host
	if len(g.Addresses) > 0 {
		host = g.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(g.Port))
}

// Browse collects every gateway announcement visible on the local
// network until ctx expires. Instances answering on multiple
// interfaces are reported once.
func Browse(ctx context.Context) ([]Gateway, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	collected := make(chan []Gateway, 1)
	go func() {
		var gateways []Gateway
		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					entries = nil
					continue
				}
				if _, dup := seen[entry.Instance]; dup {
					continue
				}
				seen[entry.Instance] = struct{}{}
				gateways = append(gateways, entryToGateway(entry))
			case _, ok := <-removed:
				if !ok {
					removed = nil
				}
			case <-ctx.Done():
				collected <- gateways
				return
			}
		}
	}()

	err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	expired := ctx.Err() != nil
	cancel()

	gateways := <-collected
	if err != nil && !expired {
		return nil, fmt.Errorf("browse %s: %w", ServiceType, err)
	}
	return gateways, nil
}

// entryToGateway converts one mDNS answer.
func entryToGateway(entry *zeroconf.ServiceEntry) Gateway {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return Gateway{
		Instance:  entry.Instance,
		Binding:   txtValue(entry.Text, "binding"),
		Version:   txtValue(entry.Text, "version"),
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
	}
}

// txtValue extracts one key=value TXT record.
func txtValue(texts []string, key string) string {
	prefix := key + "="
	for _, text := range texts {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return ""
}
