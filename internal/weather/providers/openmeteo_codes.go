package providers

import "github.com/i474232898/weather-dashboard/internal/common"

type wmoCode struct {
	day         string
	night       string
	description string
}

// wmoCodes maps WMO weather interpretation codes used by Open-Meteo.
var wmoCodes = map[int]wmoCode{
	0:  {"☀️", "🌙", "Clear sky"},
	1:  {"🌤️", "🌙", "Mainly clear"},
	2:  {"⛅", "☁️", "Partly cloudy"},
	3:  {"☁️", "☁️", "Overcast"},
	45: {"🌫️", "🌫️", "Foggy"},
	48: {"🌫️", "🌫️", "Foggy"},
	51: {"🌦️", "🌧️", "Light drizzle"},
	53: {"🌦️", "🌧️", "Moderate drizzle"},
	55: {"🌧️", "🌧️", "Dense drizzle"},
	61: {"🌧️", "🌧️", "Slight rain"},
	63: {"🌧️", "🌧️", "Moderate rain"},
	65: {"🌧️", "🌧️", "Heavy rain"},
	71: {"🌨️", "🌨️", "Slight snow"},
	73: {"🌨️", "🌨️", "Moderate snow"},
	75: {"🌨️", "🌨️", "Heavy snow"},
	77: {"🌨️", "🌨️", "Snow grains"},
	80: {"🌦️", "🌧️", "Slight rain showers"},
	81: {"🌧️", "🌧️", "Moderate rain showers"},
	82: {"⛈️", "🌧️", "Violent rain showers"},
	85: {"🌨️", "🌨️", "Slight snow showers"},
	86: {"🌨️", "🌨️", "Heavy snow showers"},
	95: {"⛈️", "⛈️", "Thunderstorm"},
	96: {"⛈️", "⛈️", "Thunderstorm with hail"},
	99: {"⛈️", "⛈️", "Thunderstorm with heavy hail"},
}

// mapOpenMeteoIcon falls back to the clear-sky icon for unknown codes.
func mapOpenMeteoIcon(code int, isDay bool) string {
	c, ok := wmoCodes[code]
	if !ok {
		c = wmoCodes[0]
	}
	if isDay {
		return c.day
	}
	return c.night
}

// mapOpenMeteoDescription reports Unknown for a missing or unlisted code.
func mapOpenMeteoDescription(code *int) string {
	if code == nil {
		return common.Unknown
	}
	if c, ok := wmoCodes[*code]; ok {
		return c.description
	}
	return common.Unknown
}
