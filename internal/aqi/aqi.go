package aqi

import "math"

const (
	// MinAQI and MaxAQI bound every index this package produces.
	MinAQI = 0
	MaxAQI = 500
)

// Category is a US EPA health category label.
type Category string

const (
	CategoryGood               Category = "Good"
	CategoryModerate           Category = "Moderate"
	CategorySensitiveUnhealthy Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy          Category = "Unhealthy"
	CategoryVeryUnhealthy      Category = "Very Unhealthy"
	CategoryHazardous          Category = "Hazardous"
)

// Index is an AQI value paired with its category.
type Index struct {
	Value    int      `json:"aqi"`
	Category Category `json:"category"`
}

// Calculate converts a PM2.5 concentration into a US EPA AQI value in [0,500].
//
// Negative and NaN inputs yield 0, concentrations above the table top clamp to 500.
// Values in the 0.1 seam between two ranges (e.g. 12.05) are scored against the
// upper range so the result never decreases as concentration grows.
func Calculate(pm25 float64) int {
	if math.IsNaN(pm25) || pm25 <= 0 {
		return MinAQI
	}

	last := pm25Table[len(pm25Table)-1]
	if pm25 >= last.ConcHigh {
		return MaxAQI
	}

	for _, bp := range pm25Table {
		if pm25 > bp.ConcHigh {
			continue
		}
		slope := float64(bp.AQIHigh-bp.AQILow) / (bp.ConcHigh - bp.ConcLow)
		v := slope*(pm25-bp.ConcLow) + float64(bp.AQILow)
		return Clamp(roundHalfUp(v))
	}

	return MaxAQI
}

// CategoryOf maps an AQI value to its category using the fixed EPA thresholds.
func CategoryOf(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategorySensitiveUnhealthy
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// FromPM25 calculates the AQI for pm25 and attaches its category.
func FromPM25(pm25 float64) Index {
	v := Calculate(pm25)
	return Index{Value: v, Category: CategoryOf(v)}
}

// FromValue clamps a precomputed EPA-scale AQI and attaches its category.
func FromValue(v int) Index {
	v = Clamp(v)
	return Index{Value: v, Category: CategoryOf(v)}
}

// Clamp bounds v to [MinAQI, MaxAQI].
func Clamp(v int) int {
	if v < MinAQI {
		return MinAQI
	}
	if v > MaxAQI {
		return MaxAQI
	}
	return v
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
