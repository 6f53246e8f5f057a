// Package temperature implements the temperature capability: named
// backends report a reading and a weather condition, a poller records
// a bounded history per backend and announces changed readings to all
// clients.
package temperature
