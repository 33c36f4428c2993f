package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Provider names accepted by WEATHER_PROVIDER and AIR_QUALITY_PROVIDER.
const (
	ProviderOpenMeteo   = "openmeteo"
	ProviderOpenWeather = "openweather"
)

type Breaker struct {
	MaxRequests         uint32        `envconfig:"BREAKER_MAX_REQUESTS" default:"5"`
	Interval            time.Duration `envconfig:"BREAKER_INTERVAL" default:"1m"`
	Timeout             time.Duration `envconfig:"BREAKER_TIMEOUT" default:"2m"`
	ConsecutiveFailures uint32        `envconfig:"BREAKER_CONSECUTIVE_FAILURES" default:"5"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Key      string `envconfig:"REDIS_LOCATIONS_KEY" default:"weather-dashboard:saved-locations"`
}

type Advice struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"20s"`
}

type AppConfig struct {
	Port        string        `envconfig:"PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	WeatherProvider    string `envconfig:"WEATHER_PROVIDER" default:"openmeteo" validate:"oneof=openmeteo openweather"`
	AirQualityProvider string `envconfig:"AIR_QUALITY_PROVIDER" default:"openmeteo" validate:"oneof=openmeteo openweather"`
	OpenWeatherAPIKey  string `envconfig:"OPENWEATHER_API_KEY"`

	OpenMeteoURL          string `envconfig:"OPENMETEO_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"url"`
	OpenMeteoAirURL       string `envconfig:"OPENMETEO_AIR_URL" default:"https://air-quality-api.open-meteo.com/v1/air-quality" validate:"url"`
	OpenMeteoGeocodingURL string `envconfig:"OPENMETEO_GEOCODING_URL" default:"https://geocoding-api.open-meteo.com/v1" validate:"url"`
	OpenWeatherURL        string `envconfig:"OPENWEATHER_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	NominatimURL          string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" validate:"url"`
	NominatimUserAgent    string `envconfig:"NOMINATIM_USER_AGENT" default:"weather-dashboard/1.0"`

	// SnapshotMaxAge is how long a cached snapshot is served before refreshing.
	SnapshotMaxAge time.Duration `envconfig:"SNAPSHOT_MAX_AGE" default:"10m"`
	// RefreshInterval controls how often tracked locations are refreshed.
	RefreshInterval  time.Duration         `envconfig:"REFRESH_INTERVAL" default:"15m"`
	TrackedLocations string                `envconfig:"TRACKED_LOCATIONS"`
	Locations        []weather.Coordinates `ignored:"true"`

	LocationStore string `envconfig:"LOCATION_STORE" default:"memory" validate:"oneof=memory redis"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	LogFile  string `envconfig:"LOG_FILE"`

	Breaker Breaker
	Redis   Redis
	Advice  Advice
}

var validate = validator.New()

// Load reads configuration from the environment (and .env when present) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv processes the current environment without touching .env.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("invalid config: HTTP_TIMEOUT must be positive")
	}

	usesOpenWeather := cfg.WeatherProvider == ProviderOpenWeather || cfg.AirQualityProvider == ProviderOpenWeather
	if usesOpenWeather && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("invalid config: OPENWEATHER_API_KEY is required for the openweather provider")
	}

	locs, err := ParseLocations(cfg.TrackedLocations)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// ParseLocations parses "lat,lon;lat,lon" into coordinates. Blank entries are skipped.
func ParseLocations(raw string) ([]weather.Coordinates, error) {
	var locs []weather.Coordinates
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid TRACKED_LOCATIONS entry %q: want lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}

		c := weather.Coordinates{Lat: lat, Lon: lon}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid TRACKED_LOCATIONS entry %q: %w", entry, err)
		}
		locs = append(locs, c)
	}
	return locs, nil
}
