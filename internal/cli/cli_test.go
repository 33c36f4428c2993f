package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/aqi"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubSource struct {
	lat, lon float64
}

func (s *stubSource) Aggregate(_ context.Context, lat, lon float64) (weather.WeatherSnapshot, error) {
	s.lat, s.lon = lat, lon
	return weather.WeatherSnapshot{
		Location:   "Berlin, Germany",
		Current:    weather.Current{Temperature: 21.4, Icon: "☀️", Description: "Clear sky"},
		AirQuality: weather.AirQuality{AQI: 42, Category: aqi.CategoryGood, PM25: 10},
		Hourly:     []weather.HourlyPoint{{Time: "3 PM", Temperature: 22}},
		Daily:      []weather.DailyPoint{{Date: "Today", MaxTemp: 24, MinTemp: 12}},
	}, nil
}

type stubSearch struct {
	places []weather.Place
	limit  int
}

func (s *stubSearch) Search(_ context.Context, _ string, limit int) ([]weather.Place, error) {
	s.limit = limit
	return s.places, nil
}

func run(t *testing.T, source weather.SnapshotSource, search weather.ForwardGeocoder, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New(source, search)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	src := &stubSource{}
	out, err := run(t, src, &stubSearch{}, "snapshot", "--lat", "52.52", "--lon", "13.405")
	require.NoError(t, err)

	assert.Equal(t, 52.52, src.lat)
	assert.Equal(t, 13.405, src.lon)
	assert.Contains(t, out, "Berlin, Germany")
	assert.Contains(t, out, "AQI 42 Good")
	assert.Contains(t, out, "Today")
}

func TestSnapshotCommandJSON(t *testing.T) {
	out, err := run(t, &stubSource{}, &stubSearch{}, "snapshot", "--lat", "1", "--lon", "2", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"location": "Berlin, Germany"`)
}

func TestSnapshotCommandRequiresFlags(t *testing.T) {
	_, err := run(t, &stubSource{}, &stubSearch{}, "snapshot", "--lat", "1")
	assert.Error(t, err)
}

func TestAQICommand(t *testing.T) {
	out, err := run(t, nil, nil, "aqi", "55.5")
	require.NoError(t, err)
	assert.Contains(t, out, "151")
	assert.Contains(t, out, string(aqi.CategoryUnhealthy))

	_, err = run(t, nil, nil, "aqi", "abc")
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	search := &stubSearch{places: []weather.Place{{Name: "Paris", Admin1: "Île-de-France", Country: "France", Latitude: 48.8534, Longitude: 2.3488}}}
	out, err := run(t, &stubSource{}, search, "search", "Paris", "--limit", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, search.limit)
	assert.Contains(t, out, "Paris, Île-de-France")

	search.places = nil
	out, err = run(t, &stubSource{}, search, "search", "Nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, "no places found")
}
