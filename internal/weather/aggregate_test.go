package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/aqi"
)

var (
	errNotCached = errors.New("not cached")
	fixedNow     = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	paris        = Coordinates{Lat: 48.8566, Lon: 2.3522}
)

func sampleReport() WeatherReport {
	return WeatherReport{
		Current: Current{Temperature: 21.4, FeelsLike: 20.9, Description: "Partly cloudy", Icon: "⛅", WindSpeed: 14},
		Hourly:  []HourlyPoint{{Time: "12 PM", Temperature: 21}, {Time: "1 PM", Temperature: 22}},
		Daily:   []DailyPoint{{Date: "Today", MaxTemp: 24, MinTemp: 14}},
	}
}

func newTestAggregator(w WeatherProvider, a AirQualityProvider, g ReverseGeocoder) *Aggregator {
	return NewAggregator(w, a, g,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "snap-1" }),
	)
}

func TestAggregate_MergesAllSources(t *testing.T) {
	w := &mockWeather{}
	a := &mockAir{policy: PolicyDerivePM25}
	g := &mockGeocoder{}

	w.On("FetchWeather", mock.Anything, paris).Return(sampleReport(), nil)
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{PM25: 40, PM10: 22, ProviderAQI: 3}, nil)
	g.On("ReverseGeocode", mock.Anything, paris).Return("Paris, France", nil)

	snap, err := newTestAggregator(w, a, g).Aggregate(context.Background(), paris.Lat, paris.Lon)
	require.NoError(t, err)

	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, "Paris, France", snap.Location)
	assert.Equal(t, paris, snap.Coordinates)
	assert.Equal(t, fixedNow, snap.FetchedAt)
	assert.Equal(t, 112, snap.AirQuality.AQI)
	assert.Equal(t, aqi.CategorySensitiveUnhealthy, snap.AirQuality.Category)
	assert.Equal(t, 22.0, snap.AirQuality.PM10)
	assert.Len(t, snap.Hourly, 2)
	assert.Equal(t, "Today", snap.Daily[0].Date)
	assert.Equal(t, Sources{Weather: "mock-weather", AirQuality: "mock-air", Geocoder: "mock-geo", AQIPolicy: PolicyDerivePM25}, snap.Sources)

	w.AssertExpectations(t)
	a.AssertExpectations(t)
	g.AssertExpectations(t)
}

func TestAggregate_ProviderEPAPolicy(t *testing.T) {
	w := &mockWeather{}
	a := &mockAir{policy: PolicyProviderEPA}

	w.On("FetchWeather", mock.Anything, paris).Return(sampleReport(), nil)
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{PM25: 40, ProviderAQI: 87}, nil).Once()

	snap, err := newTestAggregator(w, a, nil).Aggregate(context.Background(), paris.Lat, paris.Lon)
	require.NoError(t, err)
	assert.Equal(t, 87, snap.AirQuality.AQI)
	assert.Equal(t, aqi.CategoryModerate, snap.AirQuality.Category)
	assert.Equal(t, UnknownLocation, snap.Location)

	// No provider index: fall back to PM2.5.
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{PM25: 40}, nil).Once()
	snap, err = newTestAggregator(w, a, nil).Aggregate(context.Background(), paris.Lat, paris.Lon)
	require.NoError(t, err)
	assert.Equal(t, 112, snap.AirQuality.AQI)
}

func TestAggregate_WeatherFailureIsFatal(t *testing.T) {
	w := &mockWeather{}
	a := &mockAir{policy: PolicyDerivePM25}
	g := &mockGeocoder{}

	upstream := errors.New("status 500")
	w.On("FetchWeather", mock.Anything, paris).Return(WeatherReport{}, upstream)
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{PM25: 8}, nil)
	g.On("ReverseGeocode", mock.Anything, paris).Return("Paris, France", nil)

	snap, err := newTestAggregator(w, a, g).Aggregate(context.Background(), paris.Lat, paris.Lon)
	require.Error(t, err)
	assert.Equal(t, WeatherSnapshot{}, snap)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, upstream)

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "weather", aggErr.Source)
	assert.Equal(t, "mock-weather", aggErr.Provider)
}

func TestAggregate_AirFailureIsFatal(t *testing.T) {
	w := &mockWeather{}
	a := &mockAir{policy: PolicyDerivePM25}

	w.On("FetchWeather", mock.Anything, paris).Return(sampleReport(), nil)
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{}, ErrMalformedPayload)

	_, err := newTestAggregator(w, a, nil).Aggregate(context.Background(), paris.Lat, paris.Lon)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestAggregate_GeocodingFailureDegrades(t *testing.T) {
	w := &mockWeather{}
	a := &mockAir{policy: PolicyDerivePM25}
	g := &mockGeocoder{}

	w.On("FetchWeather", mock.Anything, paris).Return(sampleReport(), nil)
	a.On("FetchAirQuality", mock.Anything, paris).Return(AirReading{PM25: 5}, nil)
	g.On("ReverseGeocode", mock.Anything, paris).Return("", context.DeadlineExceeded)

	obs := &recordingObserver{}
	agg := NewAggregator(w, a, g, WithObserver(obs))

	snap, err := agg.Aggregate(context.Background(), paris.Lat, paris.Lon)
	require.NoError(t, err)
	assert.Equal(t, UnknownLocation, snap.Location)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, []string{OutcomeDegraded}, obs.outcomes)
}

func TestAggregate_InvalidCoordinates(t *testing.T) {
	agg := newTestAggregator(&mockWeather{}, &mockAir{}, nil)

	_, err := agg.Aggregate(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = agg.Aggregate(context.Background(), 0, -181)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

// The three calls must be in flight at the same time: each fake blocks until
// all of them have started.
func TestAggregate_CallsRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	arrive := func(mock.Arguments) {
		started.Done()
		started.Wait()
	}

	w := &mockWeather{}
	a := &mockAir{policy: PolicyDerivePM25}
	g := &mockGeocoder{}
	w.On("FetchWeather", mock.Anything, paris).Run(arrive).Return(sampleReport(), nil)
	a.On("FetchAirQuality", mock.Anything, paris).Run(arrive).Return(AirReading{}, nil)
	g.On("ReverseGeocode", mock.Anything, paris).Run(arrive).Return("Paris, France", nil)

	done := make(chan error, 1)
	go func() {
		_, err := newTestAggregator(w, a, g).Aggregate(context.Background(), paris.Lat, paris.Lon)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("aggregate calls were serialized")
	}
}

func TestMergeSnapshot_DoesNotAliasReport(t *testing.T) {
	report := sampleReport()
	snap := MergeSnapshot(paris, "Paris", report, AirReading{PM25: 12}, Sources{})

	report.Hourly[0].Temperature = -50
	assert.Equal(t, 21.0, snap.Hourly[0].Temperature)
	assert.Equal(t, 50, snap.AirQuality.AQI)
	assert.Equal(t, aqi.CategoryGood, snap.AirQuality.Category)
}

func TestMergeSnapshot_EmptyForecastsEncodeAsArrays(t *testing.T) {
	snap := MergeSnapshot(paris, "Paris", WeatherReport{}, AirReading{}, Sources{})
	assert.NotNil(t, snap.Hourly)
	assert.NotNil(t, snap.Daily)

	raw, err := json.Marshal(snap.Clone())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hourly":[]`)
	assert.Contains(t, string(raw), `"daily":[]`)
}

func TestCoordinatesKey(t *testing.T) {
	assert.Equal(t, "48.8566,2.3522", paris.Key())
	assert.NoError(t, paris.Validate())
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveAggregation(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
