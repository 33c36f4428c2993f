package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var paris = weather.Coordinates{Lat: 48.8566, Lon: 2.3522}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveUpstream(_ string, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingObserver) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}

func testHTTPConfig(obs UpstreamObserver) HTTPClientConfig {
	return HTTPClientConfig{
		Client:   &http.Client{Timeout: 2 * time.Second},
		Breaker:  DefaultBreakerConfig(),
		Observer: obs,
		Logger:   zerolog.Nop(),
	}
}

func openMeteoFixture(hours int) []byte {
	times := make([]string, hours)
	temps := make([]float64, hours)
	codes := make([]int, hours)
	precip := make([]any, hours)
	isDay := make([]int, hours)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < hours; i++ {
		times[i] = start.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
		temps[i] = 10 + float64(i)
		codes[i] = 2
		precip[i] = i * 2
		if i%24 >= 6 && i%24 < 21 {
			isDay[i] = 1
		}
	}
	precip[1] = nil

	body := map[string]any{
		"timezone":           "Europe/Paris",
		"utc_offset_seconds": 7200,
		"current": map[string]any{
			"temperature_2m":       21.4,
			"relative_humidity_2m": 58,
			"apparent_temperature": 20.9,
			"is_day":               1,
			"weather_code":         61,
			"wind_speed_10m":       14.6,
			"wind_direction_10m":   230,
			"pressure_msl":         1014.2,
			"visibility":           24140,
			"uv_index":             5.35,
		},
		"hourly": map[string]any{
			"time":                      times,
			"temperature_2m":            temps,
			"weather_code":              codes,
			"precipitation_probability": precip,
			"is_day":                    isDay,
		},
		"daily": map[string]any{
			"time":                          []string{"2024-06-01", "2024-06-02", "2024-06-03"},
			"weather_code":                  []int{61, 0, 1234},
			"temperature_2m_max":            []float64{24.1, 26.3, 22},
			"temperature_2m_min":            []float64{13.2, 14.8, 12},
			"sunrise":                       []string{"2024-06-01T05:49", "2024-06-02T05:48", "2024-06-03T05:48"},
			"sunset":                        []string{"2024-06-01T21:47", "2024-06-02T21:48", "2024-06-03T21:49"},
			"precipitation_probability_max": []any{80, nil, 10},
		},
	}
	b, _ := json.Marshal(body)
	return b
}

func TestOpenMeteoProvider_FetchWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "48.8566", r.URL.Query().Get("latitude"))
		assert.Equal(t, "2.3522", r.URL.Query().Get("longitude"))
		assert.Equal(t, "auto", r.URL.Query().Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openMeteoFixture(48))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	p := NewOpenMeteoProvider(testHTTPConfig(obs), srv.URL)
	report, err := p.FetchWeather(context.Background(), paris)
	require.NoError(t, err)

	cur := report.Current
	assert.Equal(t, 21.4, cur.Temperature)
	assert.Equal(t, 20.9, cur.FeelsLike)
	assert.Equal(t, "Slight rain", cur.Description)
	assert.Equal(t, "🌧️", cur.Icon)
	assert.Equal(t, 58.0, cur.Humidity)
	assert.Equal(t, 15.0, cur.WindSpeed)
	assert.Equal(t, 230.0, cur.WindDirection)
	assert.Equal(t, 24140.0, cur.Visibility)
	assert.Equal(t, 5.35, cur.UVIndex)
	assert.Equal(t, "5:49 AM", cur.Sunrise)
	assert.Equal(t, "9:47 PM", cur.Sunset)

	require.Len(t, report.Hourly, 24)
	assert.Equal(t, "12 AM", report.Hourly[0].Time)
	assert.Equal(t, "☁️", report.Hourly[0].Icon)
	assert.Equal(t, "⛅", report.Hourly[12].Icon)
	assert.Equal(t, 0.0, report.Hourly[1].Precipitation)
	assert.Equal(t, 33.0, report.Hourly[23].Temperature)

	require.Len(t, report.Daily, 3)
	assert.Equal(t, "Today", report.Daily[0].Date)
	assert.Equal(t, "Sun", report.Daily[1].Date)
	assert.Equal(t, "Clear sky", report.Daily[1].Description)
	assert.Equal(t, 0.0, report.Daily[1].Precipitation)
	assert.Equal(t, "Unknown", report.Daily[2].Description)
	assert.Equal(t, "☀️", report.Daily[2].Icon)

	assert.Equal(t, outcomeOK, obs.last())
}

func TestAdaptOpenMeteo_MissingFieldsDefault(t *testing.T) {
	var payload openMeteoForecast
	require.NoError(t, json.Unmarshal([]byte(`{"current":{}}`), &payload))

	report := adaptOpenMeteo(payload)
	assert.Equal(t, 0.0, report.Current.Temperature)
	assert.Equal(t, "Unknown", report.Current.Description)
	assert.Equal(t, "☀️", report.Current.Icon)
	assert.Equal(t, "Unknown", report.Current.Sunrise)
	assert.Empty(t, report.Hourly)
	assert.Empty(t, report.Daily)
}

func TestAdaptOpenMeteo_MissingDailyCodeIsUnknown(t *testing.T) {
	var payload openMeteoForecast
	require.NoError(t, json.Unmarshal([]byte(`{
		"daily": {
			"time": ["2024-06-01", "2024-06-02"],
			"weather_code": [null, 61],
			"temperature_2m_max": [20, 18],
			"temperature_2m_min": [10, 9]
		}
	}`), &payload))

	report := adaptOpenMeteo(payload)
	require.Len(t, report.Daily, 2)
	assert.Equal(t, "Unknown", report.Daily[0].Description)
	assert.Equal(t, "☀️", report.Daily[0].Icon)
	assert.Equal(t, "Slight rain", report.Daily[1].Description)
}

func TestMapOpenMeteoDescription(t *testing.T) {
	clearSky := 0
	unlisted := 42
	assert.Equal(t, "Clear sky", mapOpenMeteoDescription(&clearSky))
	assert.Equal(t, "Unknown", mapOpenMeteoDescription(&unlisted))
	assert.Equal(t, "Unknown", mapOpenMeteoDescription(nil))
}

func TestOpenMeteoProvider_ServerErrorIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	p := NewOpenMeteoProvider(testHTTPConfig(obs), srv.URL)
	_, err := p.FetchWeather(context.Background(), paris)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, outcomeServerError, obs.last())
}

func TestOpenMeteoProvider_DoesNotRetry(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testHTTPConfig(nil), srv.URL)
	_, err := p.FetchWeather(context.Background(), paris)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestOpenMeteoProvider_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	cfg := testHTTPConfig(obs)
	cfg.Breaker.ConsecutiveFailures = 2
	p := NewOpenMeteoProvider(cfg, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := p.FetchWeather(context.Background(), paris)
		require.Error(t, err)
	}

	_, err := p.FetchWeather(context.Background(), paris)
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, outcomeCircuitOpen, obs.last())
}

func TestOpenMeteoProvider_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"current": [}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	p := NewOpenMeteoProvider(testHTTPConfig(obs), srv.URL)
	_, err := p.FetchWeather(context.Background(), paris)
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, weather.ErrMalformedPayload)
	assert.Equal(t, outcomeMalformed, obs.last())
}

func TestFetchJSON_NoClient(t *testing.T) {
	p := NewOpenMeteoProvider(HTTPClientConfig{}, "http://127.0.0.1:1")
	_, err := p.FetchWeather(context.Background(), paris)
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, errNoHTTPClient)
}
