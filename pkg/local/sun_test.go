package local

import (
	"testing"
	"time"
)

const (
	hamburgLat = 53.5511
	hamburgLon = 9.9937

	sydneyLat = -33.8688
	sydneyLon = 151.2093

	quitoLat = -0.1807
	quitoLon = -78.4678
)

func assertBetween(t *testing.T, name string, got, lo, hi time.Time) {
	t.Helper()
	if got.Before(lo) || got.After(hi) {
		t.Errorf("%s = %v, want between %v and %v", name, got, lo, hi)
	}
}

func TestSunTimesHamburgSummer(t *testing.T) {
	day := time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC)
	rise, set := sunTimes(day, hamburgLat, hamburgLon, 0)

	// Published values for the solstice: rise 02:50 UTC, set 19:53 UTC.
	assertBetween(t, "sunrise", rise,
		time.Date(2026, time.June, 21, 2, 30, 0, 0, time.UTC),
		time.Date(2026, time.June, 21, 3, 10, 0, 0, time.UTC))
	assertBetween(t, "sunset", set,
		time.Date(2026, time.June, 21, 19, 35, 0, 0, time.UTC),
		time.Date(2026, time.June, 21, 20, 15, 0, 0, time.UTC))
}

func TestSunTimesDayLength(t *testing.T) {
	tests := []struct {
		name     string
		day      time.Time
		lat, lon float64
		min, max time.Duration
	}{
		{
			name: "hamburg midsummer",
			day:  time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC),
			lat:  hamburgLat, lon: hamburgLon,
			min: 16 * time.Hour, max: 18 * time.Hour,
		},
		{
			name: "hamburg midwinter",
			day:  time.Date(2026, time.December, 21, 12, 0, 0, 0, time.UTC),
			lat:  hamburgLat, lon: hamburgLon,
			min: 7 * time.Hour, max: 8 * time.Hour,
		},
		{
			name: "quito equinox",
			day:  time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC),
			lat:  quitoLat, lon: quitoLon,
			min: 11*time.Hour + 30*time.Minute, max: 12*time.Hour + 30*time.Minute,
		},
		{
			name: "sydney midsummer",
			day:  time.Date(2026, time.December, 21, 12, 0, 0, 0, time.UTC),
			lat:  sydneyLat, lon: sydneyLon,
			min: 14 * time.Hour, max: 15 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rise, set := sunTimes(tt.day, tt.lat, tt.lon, 0)
			if !rise.Before(set) {
				t.Fatalf("sunrise %v not before sunset %v", rise, set)
			}
			if length := set.Sub(rise); length < tt.min || length > tt.max {
				t.Errorf("day length = %v, want between %v and %v", length, tt.min, tt.max)
			}
		})
	}
}

func TestSunTimesFarEasternLongitude(t *testing.T) {
	// Sydney's solar day anchored at a UTC date begins on the
	// previous UTC date: rise around Dec 20 18:43 UTC, set around
	// Dec 21 09:07 UTC.
	day := time.Date(2026, time.December, 21, 12, 0, 0, 0, time.UTC)
	rise, set := sunTimes(day, sydneyLat, sydneyLon, 0)

	assertBetween(t, "sunrise", rise,
		time.Date(2026, time.December, 20, 18, 15, 0, 0, time.UTC),
		time.Date(2026, time.December, 20, 19, 15, 0, 0, time.UTC))
	assertBetween(t, "sunset", set,
		time.Date(2026, time.December, 21, 8, 40, 0, 0, time.UTC),
		time.Date(2026, time.December, 21, 9, 40, 0, 0, time.UTC))
}

func TestSunTimesElevationWidensTheDay(t *testing.T) {
	day := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	riseSea, setSea := sunTimes(day, hamburgLat, hamburgLon, 0)
	riseHigh, setHigh := sunTimes(day, hamburgLat, hamburgLon, 500)

	if !riseHigh.Before(riseSea) {
		t.Errorf("elevated sunrise %v not before sea level sunrise %v", riseHigh, riseSea)
	}
	if !setHigh.After(setSea) {
		t.Errorf("elevated sunset %v not after sea level sunset %v", setHigh, setSea)
	}
}

func TestSunTimesPolarNightCollapses(t *testing.T) {
	// Tromsø does not see the sun in late December; both events
	// collapse onto the transit.
	day := time.Date(2026, time.December, 21, 12, 0, 0, 0, time.UTC)
	rise, set := sunTimes(day, 69.6492, 18.9553, 0)

	if !rise.Equal(set) {
		t.Errorf("polar night: sunrise %v differs from sunset %v", rise, set)
	}
}

func TestNextSunEventsDuringTheDay(t *testing.T) {
	// Noon in Hamburg: the next set is tonight, the next rise
	// tomorrow morning.
	now := time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC)
	sunrise, sunset := nextSunEvents(now, hamburgLat, hamburgLon, 0)

	if !sunrise.After(now) || !sunset.After(now) {
		t.Fatalf("events not in the future: sunrise %v, sunset %v", sunrise, sunset)
	}
	if !sunset.Before(sunrise) {
		t.Errorf("next sunset %v should come before next sunrise %v", sunset, sunrise)
	}
	if until := sunset.Sub(now); until > 9*time.Hour {
		t.Errorf("next sunset %v from noon, want tonight", until)
	}
	if until := sunrise.Sub(now); until < 12*time.Hour {
		t.Errorf("next sunrise %v from noon, want tomorrow morning", until)
	}
	if !daylight(sunrise, sunset, now) {
		t.Error("expected daylight at noon")
	}
}

func TestNextSunEventsAtNight(t *testing.T) {
	now := time.Date(2026, time.June, 21, 23, 0, 0, 0, time.UTC)
	sunrise, sunset := nextSunEvents(now, hamburgLat, hamburgLon, 0)

	if !sunrise.After(now) || !sunset.After(now) {
		t.Fatalf("events not in the future: sunrise %v, sunset %v", sunrise, sunset)
	}
	if !sunrise.Before(sunset) {
		t.Errorf("next sunrise %v should come before next sunset %v", sunrise, sunset)
	}
	if daylight(sunrise, sunset, now) {
		t.Error("expected night at 23:00 UTC")
	}
}
