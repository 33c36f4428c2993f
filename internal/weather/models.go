package weather

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/aqi"
)

// UnknownLocation is the place name used when reverse geocoding fails.
const UnknownLocation = "Unknown Location"

// Coordinates identify the point a snapshot was requested for.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Key returns a canonical string key for indexing these coordinates in stores.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Validate reports ErrInvalidCoordinates for out of range or non-finite values.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) ||
		c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, c.Lat, c.Lon)
	}
	return nil
}

// Current holds present conditions. Temperatures are °C, wind km/h,
// pressure hPa and visibility metres.
type Current struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Description   string  `json:"description"`
	Icon          string  `json:"icon"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	Pressure      float64 `json:"pressure"`
	Visibility    float64 `json:"visibility"`
	UVIndex       float64 `json:"uvIndex"`
	Sunrise       string  `json:"sunrise"`
	Sunset        string  `json:"sunset"`
}

// AirQuality holds the resolved index and pollutant concentrations in µg/m³.
type AirQuality struct {
	AQI      int          `json:"aqi"`
	Category aqi.Category `json:"category"`
	PM25     float64      `json:"pm25"`
	PM10     float64      `json:"pm10"`
	NO2      float64      `json:"no2"`
	SO2      float64      `json:"so2"`
	O3       float64      `json:"o3"`
	CO       float64      `json:"co"`
}

// HourlyPoint is one entry of the short-range forecast.
type HourlyPoint struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temp"`
	Icon          string  `json:"icon"`
	Precipitation float64 `json:"precipitation"`
}

// DailyPoint summarises one calendar day. The first entry is always "Today".
type DailyPoint struct {
	Date          string  `json:"date"`
	MaxTemp       float64 `json:"maxTemp"`
	MinTemp       float64 `json:"minTemp"`
	Icon          string  `json:"icon"`
	Description   string  `json:"description"`
	Precipitation float64 `json:"precipitation"`
}

// Sources names the providers that fed a snapshot.
type Sources struct {
	Weather    string    `json:"weather"`
	AirQuality string    `json:"airQuality"`
	Geocoder   string    `json:"geocoder,omitempty"`
	AQIPolicy  AQIPolicy `json:"aqiPolicy"`
}

// WeatherSnapshot is the normalized weather and air quality view of a place.
// Each aggregation builds a new one; nothing in this module edits a snapshot
// once it has been returned.
type WeatherSnapshot struct {
	ID          string        `json:"id"`
	Location    string        `json:"location"`
	Coordinates Coordinates   `json:"coordinates"`
	Current     Current       `json:"current"`
	AirQuality  AirQuality    `json:"airQuality"`
	Hourly      []HourlyPoint `json:"hourly"`
	Daily       []DailyPoint  `json:"daily"`
	Sources     Sources       `json:"sources"`
	FetchedAt   time.Time     `json:"fetchedAt"` // always UTC
}

// Clone returns a copy that shares no slices with s.
func (s WeatherSnapshot) Clone() WeatherSnapshot {
	out := s
	if s.Hourly != nil {
		out.Hourly = append(make([]HourlyPoint, 0, len(s.Hourly)), s.Hourly...)
	}
	if s.Daily != nil {
		out.Daily = append(make([]DailyPoint, 0, len(s.Daily)), s.Daily...)
	}
	return out
}

// Place is a forward geocoding candidate.
type Place struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
