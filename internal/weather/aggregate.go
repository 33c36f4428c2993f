package weather

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Observer receives aggregation outcomes, typically for metrics.
type Observer interface {
	ObserveAggregation(outcome string, d time.Duration)
}

// Aggregation outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Aggregator merges one weather provider, one air quality provider and an
// optional reverse geocoder into a WeatherSnapshot. It holds no per-call state
// and is safe for concurrent use.
type Aggregator struct {
	weather  WeatherProvider
	air      AirQualityProvider
	geocoder ReverseGeocoder

	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

func WithObserver(o Observer) Option {
	return func(a *Aggregator) { a.observer = o }
}

// WithClock overrides the time source used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithIDGenerator overrides snapshot ID generation.
func WithIDGenerator(f func() string) Option {
	return func(a *Aggregator) { a.newID = f }
}

// NewAggregator creates an Aggregator. geocoder may be nil, in which case
// every snapshot carries UnknownLocation.
func NewAggregator(w WeatherProvider, air AirQualityProvider, geocoder ReverseGeocoder, opts ...Option) *Aggregator {
	a := &Aggregator{
		weather:  w,
		air:      air,
		geocoder: geocoder,
		logger:   zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate fetches weather, air quality and the place name for (lat, lon)
// concurrently and merges them. Weather or air quality failures abort with an
// *AggregationError; a geocoding failure only degrades the location name.
func (a *Aggregator) Aggregate(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	coords := Coordinates{Lat: lat, Lon: lon}
	if err := coords.Validate(); err != nil {
		return WeatherSnapshot{}, err
	}

	start := time.Now()

	var (
		wg sync.WaitGroup

		report     WeatherReport
		weatherErr error

		reading AirReading
		airErr  error

		place  string
		geoErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		report, weatherErr = a.weather.FetchWeather(ctx, coords)
	}()
	go func() {
		defer wg.Done()
		reading, airErr = a.air.FetchAirQuality(ctx, coords)
	}()

	if a.geocoder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			place, geoErr = a.geocoder.ReverseGeocode(ctx, coords)
		}()
	} else {
		geoErr = ErrGeocodingUnavailable
	}

	wg.Wait()

	var failures []error
	if weatherErr != nil {
		failures = append(failures, &AggregationError{Source: "weather", Provider: a.weather.Name(), Err: weatherErr})
	}
	if airErr != nil {
		failures = append(failures, &AggregationError{Source: "air_quality", Provider: a.air.Name(), Err: airErr})
	}
	if len(failures) > 0 {
		err := errors.Join(failures...)
		a.logger.Error().Err(err).Str("coords", coords.Key()).Msg("aggregation failed")
		a.observe(OutcomeFailed, start)
		return WeatherSnapshot{}, err
	}

	outcome := OutcomeOK
	if geoErr != nil || place == "" {
		if geoErr != nil && a.geocoder != nil {
			a.logger.Warn().Err(geoErr).Str("coords", coords.Key()).Msg("reverse geocoding failed; using placeholder location")
		}
		place = UnknownLocation
		outcome = OutcomeDegraded
	}

	sources := Sources{
		Weather:    a.weather.Name(),
		AirQuality: a.air.Name(),
		AQIPolicy:  a.air.AQIPolicy(),
	}
	if a.geocoder != nil {
		sources.Geocoder = a.geocoder.Name()
	}

	snapshot := MergeSnapshot(coords, place, report, reading, sources)
	snapshot.ID = a.newID()
	snapshot.FetchedAt = a.now().UTC()

	a.logger.Debug().
		Str("coords", coords.Key()).
		Str("location", snapshot.Location).
		Int("aqi", snapshot.AirQuality.AQI).
		Msg("aggregated snapshot")
	a.observe(outcome, start)

	return snapshot, nil
}

func (a *Aggregator) observe(outcome string, start time.Time) {
	if a.observer != nil {
		a.observer.ObserveAggregation(outcome, time.Since(start))
	}
}

// MergeSnapshot combines provider contributions into a snapshot, resolving the
// AQI under the air provider's policy. ID and FetchedAt are left to the caller.
func MergeSnapshot(coords Coordinates, location string, report WeatherReport, reading AirReading, sources Sources) WeatherSnapshot {
	idx := sources.AQIPolicy.Resolve(reading)

	return WeatherSnapshot{
		Location:    location,
		Coordinates: coords,
		Current:     report.Current,
		AirQuality: AirQuality{
			AQI:      idx.Value,
			Category: idx.Category,
			PM25:     reading.PM25,
			PM10:     reading.PM10,
			NO2:      reading.NO2,
			SO2:      reading.SO2,
			O3:       reading.O3,
			CO:       reading.CO,
		},
		Hourly:  append(make([]HourlyPoint, 0, len(report.Hourly)), report.Hourly...),
		Daily:   append(make([]DailyPoint, 0, len(report.Daily)), report.Daily...),
		Sources: sources,
	}
}
