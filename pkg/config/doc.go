// Package config loads the gateway configuration from a single YAML
// file: the transport bindings, logging, the observed location and the
// declared light and temperature backends.
package config
