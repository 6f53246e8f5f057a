package temperature

import (
	"math"
	"time"
)

// Backend is one temperature source, a sensor or a weather service.
type Backend interface {
	// ID returns the unique backend id.
	ID() string

	// Location returns where the temperature is measured.
	Location() string

	// Current returns the current temperature in degrees Celsius.
	Current() (float64, error)

	// Condition returns the current weather condition name, for
	// example "day-sunny" or "night-clear".
	Condition() string
}

// DummyBackend generates a plausible diurnal temperature curve without
// talking to any hardware, for development setups and tests.
type DummyBackend struct {
	id       string
	location string
	now      func() time.Time
}

// NewDummyBackend creates a virtual temperature backend.
func NewDummyBackend(id, location string) *DummyBackend {
	return &DummyBackend{id: id, location: location, now: time.Now}
}

// ID returns the unique backend id.
func (b *DummyBackend) ID() string { return b.id }

// Location returns where the temperature is measured.
func (b *DummyBackend) Location() string { return b.location }

// Current returns a temperature following a sine over the day, coldest
// around 03:00 and warmest around 15:00.
func (b *DummyBackend) Current() (float64, error) {
	now := b.now()
	hour := float64(now.Hour()) + float64(now.Minute())/60

	value := 12 + 8*math.Sin((hour-9)/24*2*math.Pi)
	return math.Round(value*10) / 10, nil
}

// Condition reports a clear sky matching the time of day.
func (b *DummyBackend) Condition() string {
	hour := b.now().Hour()
	if hour >= 6 && hour < 21 {
		return "day-sunny"
	}
	return "night-clear"
}

var _ Backend = (*DummyBackend)(nil)
