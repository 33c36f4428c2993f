package weather

import (
	"context"

	"github.com/i474232898/weather-dashboard/internal/aqi"
)

// WeatherReport is a weather provider's contribution to a snapshot, already
// in canonical units.
type WeatherReport struct {
	Current Current
	Hourly  []HourlyPoint
	Daily   []DailyPoint
}

// AirReading is an air quality provider's contribution. ProviderAQI is the
// provider's own index when it reports one on the US EPA scale, else 0.
type AirReading struct {
	PM25 float64
	PM10 float64
	NO2  float64
	SO2  float64
	O3   float64
	CO   float64

	ProviderAQI int
}

// AQIPolicy states how an air quality provider's readings become an AQI.
type AQIPolicy string

const (
	// PolicyDerivePM25 ignores any provider index and derives AQI from PM2.5.
	PolicyDerivePM25 AQIPolicy = "derive-pm25"
	// PolicyProviderEPA trusts a reported EPA-scale index, falling back to PM2.5.
	PolicyProviderEPA AQIPolicy = "provider-epa"
)

// Resolve turns r into an AQI value and category under p.
func (p AQIPolicy) Resolve(r AirReading) aqi.Index {
	if p == PolicyProviderEPA && r.ProviderAQI > 0 {
		return aqi.FromValue(r.ProviderAQI)
	}
	return aqi.FromPM25(r.PM25)
}

// WeatherProvider abstracts a forecast source (e.g. Open-Meteo, OpenWeatherMap).
type WeatherProvider interface {
	Name() string
	FetchWeather(ctx context.Context, c Coordinates) (WeatherReport, error)
}

// AirQualityProvider abstracts a pollutant source and declares its AQI policy.
type AirQualityProvider interface {
	Name() string
	AQIPolicy() AQIPolicy
	FetchAirQuality(ctx context.Context, c Coordinates) (AirReading, error)
}

// ReverseGeocoder resolves coordinates into a display name.
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, c Coordinates) (string, error)
}

// ForwardGeocoder searches places by name.
type ForwardGeocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Store is the contract the snapshot cache (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(snapshot WeatherSnapshot)
	GetLatest(c Coordinates) (WeatherSnapshot, error)
}
