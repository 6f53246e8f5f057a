// Package local implements the local capability: it tracks the sun at
// the gateway's location, computes the next sunrise and sunset and
// keeps a daylight flag that is announced to every client whenever it
// flips.
package local
