// Package normalize holds the pure conversions applied at provider adapter
// boundaries: units, clock labels, forecast decimation and daily grouping.
package normalize

import (
	"math"
	"strconv"
)

// MsToKmh converts metres per second to whole kilometres per hour.
func MsToKmh(v float64) float64 {
	return math.Round(v * 3.6)
}

// MetersToKm converts metres to kilometres at full precision.
func MetersToKm(v float64) float64 {
	return v / 1000
}

// FormatKm renders a metre distance as kilometres with one decimal place.
func FormatKm(meters float64) string {
	return strconv.FormatFloat(MetersToKm(meters), 'f', 1, 64) + " km"
}

// TemperatureUnit is the unit a provider reports temperatures in.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
	Kelvin
)

// ToCelsius converts v from unit into degrees Celsius.
func ToCelsius(v float64, unit TemperatureUnit) float64 {
	switch unit {
	case Fahrenheit:
		return (v - 32) * 5 / 9
	case Kelvin:
		return v - 273.15
	default:
		return v
	}
}

var compass = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirectionCardinal maps a bearing in degrees to an 8-point compass label.
func WindDirectionCardinal(deg float64) string {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return compass[int(math.Round(d/45))%len(compass)]
}

// UVLevel labels a UV index reading.
func UVLevel(uv float64) string {
	switch {
	case uv <= 2:
		return "Low"
	case uv <= 5:
		return "Moderate"
	case uv <= 7:
		return "High"
	case uv <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}
