// Package light implements the light capability: per-light status with
// dim level save/restore, room grouping, and the room and fleet
// aggregate states.
//
// # State machine
//
// A dimmable light keeps its last non-zero brightness in a saved dim
// level. Switching off remembers the level, switching back on without
// an explicit level restores it. A provided dim level of 0 switches
// off; a provided level above 0 switches on. Levels outside [0,100]
// are rejected without touching the light.
//
// # Aggregates
//
// A room's aggregate is On when every member is on, Off when every
// member is off, and Mixed otherwise. The fleet aggregate applies the
// same rule across all lights. Aggregates push to clients only when
// their value actually changes.
package light
