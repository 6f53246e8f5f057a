// Package discovery announces the gateway on the local network via
// mDNS. Every enabled TCP binding is advertised as one _knut._tcp
// instance; clients browse the same service type to find a gateway
// without configuration.
package discovery
