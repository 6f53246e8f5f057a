package local

import (
	"math"
	"time"
)

// Solar position math following the NOAA sunrise equation. Accurate to
// a few minutes below the polar circles, which is enough to drive the
// daylight flag.

const (
	julianUnixEpoch = 2440587.5
	julianJ2000     = 2451545.0
)

// sunHorizon is the solar altitude in degrees at which rise and set
// are reported, accounting for atmospheric refraction and the sun's
// apparent radius.
const sunHorizon = -0.833

// sunTimes returns the sunrise and sunset instants of the solar day
// anchored at day's UTC date. Depending on longitude either event may
// fall on a neighboring UTC date.
func sunTimes(day time.Time, latitude, longitude, elevation float64) (rise, set time.Time) {
	// Julian day at noon of the UTC date.
	jd := julianDay(day) + 0.5
	n := jd - julianJ2000 + 0.0008

	// Mean solar time at the observer's longitude.
	jStar := n - longitude/360

	// Solar mean anomaly and equation of center.
	m := math.Mod(357.5291+0.98560028*jStar, 360)
	mRad := m * math.Pi / 180
	center := 1.9148*math.Sin(mRad) + 0.02*math.Sin(2*mRad) + 0.0003*math.Sin(3*mRad)

	// Ecliptic longitude and solar transit.
	lambda := math.Mod(m+center+180+102.9372, 360)
	lambdaRad := lambda * math.Pi / 180
	transit := julianJ2000 + jStar + 0.0053*math.Sin(mRad) - 0.0069*math.Sin(2*lambdaRad)

	// Declination of the sun.
	dec := math.Asin(math.Sin(lambdaRad) * math.Sin(23.44*math.Pi/180))

	// An observer above sea level sees the sun rise earlier and set
	// later.
	horizon := sunHorizon
	if elevation > 0 {
		horizon -= 2.076 * math.Sqrt(elevation) / 60
	}

	// Hour angle between transit and the corrected horizon. Beyond
	// the polar circles the sun may not cross the horizon at all;
	// clamping collapses both events onto the transit (polar night)
	// or spreads them across the full day (polar day).
	latRad := latitude * math.Pi / 180
	cosOmega := (math.Sin(horizon*math.Pi/180) - math.Sin(latRad)*math.Sin(dec)) /
		(math.Cos(latRad) * math.Cos(dec))
	cosOmega = math.Max(-1, math.Min(1, cosOmega))
	omega := math.Acos(cosOmega) * 180 / math.Pi

	rise = julianToTime(transit - omega/360)
	set = julianToTime(transit + omega/360)
	return rise, set
}

// nextSunEvents returns the next sunrise and the next sunset strictly
// after now.
func nextSunEvents(now time.Time, latitude, longitude, elevation float64) (sunrise, sunset time.Time) {
	// Scanning from the previous UTC date covers every longitude;
	// two days ahead both events are guaranteed found.
	day := now.UTC().AddDate(0, 0, -1)
	for i := 0; i < 4; i++ {
		rise, set := sunTimes(day, latitude, longitude, elevation)
		if sunrise.IsZero() && rise.After(now) {
			sunrise = rise
		}
		if sunset.IsZero() && set.After(now) {
			sunset = set
		}
		if !sunrise.IsZero() && !sunset.IsZero() {
			return sunrise, sunset
		}
		day = day.AddDate(0, 0, 1)
	}
	return sunrise, sunset
}

// daylight reports whether the sun is up at now, given the next sun
// events: when the next sunset comes before the next sunrise, the sun
// has risen already.
func daylight(sunrise, sunset, now time.Time) bool {
	return sunset.Before(sunrise) && now.Before(sunset)
}

// julianDay returns the Julian day at 00:00 UTC of t's date.
func julianDay(t time.Time) float64 {
	year, month, day := t.UTC().Date()
	y, m := float64(year), float64(month)
	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(day) + b - 1524.5
}

// julianToTime converts a Julian day to the wall clock instant.
func julianToTime(jd float64) time.Time {
	seconds := (jd - julianUnixEpoch) * 86400
	return time.Unix(int64(seconds), int64((seconds-math.Floor(seconds))*1e9)).UTC()
}
