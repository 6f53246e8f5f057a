// Package gateway assembles a complete Knut gateway from its
// configuration: the capability registry, the push broadcast loop, the
// enabled transport servers and the mDNS advertisement. All shared
// state lives on the Gateway value; nothing is process-global.
package gateway
