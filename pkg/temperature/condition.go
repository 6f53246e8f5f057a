package temperature

// weatherIcons maps condition names to the Weather Icons font code
// points the clients render. Covers the names the shipped backends
// emit plus their common neighbors.
var weatherIcons = map[string]string{
	"cloud":              "",
	"cloudy":             "",
	"cloudy-gusts":       "",
	"cloudy-windy":       "",
	"day-cloudy":         "",
	"day-cloudy-gusts":   "",
	"day-cloudy-windy":   "",
	"day-fog":            "",
	"day-hail":           "",
	"day-haze":           "",
	"day-lightning":      "",
	"day-rain":           "",
	"day-rain-mix":       "",
	"day-rain-wind":      "",
	"day-showers":        "",
	"day-sleet":          "",
	"day-snow":           "",
	"day-sprinkle":       "",
	"day-storm-showers":  "",
	"day-sunny":          "",
	"day-sunny-overcast": "",
	"day-thunderstorm":   "",
	"day-windy":          "",
	"fog":                "",
	"hail":               "",
	"hot":                "",
	"humidity":           "",
	"lightning":          "",
	"night-alt-cloudy":   "",
	"night-alt-rain":     "",
	"night-alt-showers":  "",
	"night-alt-snow":     "",
	"night-clear":        "",
	"night-cloudy":       "",
	"night-fog":          "",
	"night-hail":         "",
	"night-lightning":    "",
	"night-rain":         "",
	"night-showers":      "",
	"night-snow":         "",
	"night-thunderstorm": "",
	"rain":               "",
	"rain-mix":           "",
	"rain-wind":          "",
	"showers":            "",
	"sleet":              "",
	"snow":               "",
	"snow-wind":          "",
	"sprinkle":           "",
	"storm-showers":      "",
	"thunderstorm":       "",
	"windy":              "",
}

// conditionIcon returns the icon code point for a condition name, or
// an empty string for an unknown name.
func conditionIcon(name string) string {
	return weatherIcons[name]
}
