package providers

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/normalize"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	OpenWeatherName           = "openweathermap"
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
)

// The 5 day forecast comes in 3 hour steps; every 2nd sample, first 6 results
// gives a 6-hourly strip covering a day and a half.
var openWeatherHourly = normalize.Strategy{Step: 2, Limit: 6}

// OpenWeatherProvider implements weather.WeatherProvider for OpenWeatherMap.
// It combines the current conditions and 5 day / 3 hour forecast endpoints.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   normalize.TemperatureUnit
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// OpenWeatherOption configures an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithOpenWeatherKelvin requests "standard" units (Kelvin) instead of metric.
func WithOpenWeatherKelvin() OpenWeatherOption {
	return func(p *OpenWeatherProvider) { p.units = normalize.Kelvin }
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, baseURL, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	p := &OpenWeatherProvider{
		name:    OpenWeatherName,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		units:   normalize.Celsius,
		httpCfg: cfg,
		circuit: newCircuitBreaker(OpenWeatherName, cfg.Breaker, cfg.Logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, c weather.Coordinates) (weather.WeatherReport, error) {
	if p.apiKey == "" {
		return weather.WeatherReport{}, upstreamErr(p.name, errMissingKey)
	}

	values := url.Values{}
	values.Set("lat", formatCoord(c.Lat))
	values.Set("lon", formatCoord(c.Lon))
	values.Set("appid", p.apiKey)
	if p.units == normalize.Kelvin {
		values.Set("units", "standard")
	} else {
		values.Set("units", "metric")
	}
	query := values.Encode()

	var (
		current  openWeatherCurrent
		forecast openWeatherForecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fetchJSON(gctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/weather?"+query, &current)
	})
	g.Go(func() error {
		return fetchJSON(gctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/forecast?"+query, &forecast)
	})
	if err := g.Wait(); err != nil {
		return weather.WeatherReport{}, err
	}

	return adaptOpenWeather(current, forecast, p.units), nil
}

type openWeatherCondition struct {
	Main        *string `json:"main"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

type openWeatherCurrent struct {
	Weather []openWeatherCondition `json:"weather"`
	Main    struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Pressure  *float64 `json:"pressure"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Sys struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
	Timezone *int `json:"timezone"`
}

type openWeatherForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
		Pop     *float64               `json:"pop"`
	} `json:"list"`
	City struct {
		Timezone *int `json:"timezone"`
	} `json:"city"`
}

// adaptOpenWeather maps both payloads to canonical units: temperatures to °C,
// wind from m/s to km/h, probability of precipitation from 0-1 to percent.
// OpenWeatherMap does not report UV on these endpoints, so UVIndex stays 0.
func adaptOpenWeather(cur openWeatherCurrent, fc openWeatherForecast, units normalize.TemperatureUnit) weather.WeatherReport {
	offset := common.OrZero(cur.Timezone)
	if fc.City.Timezone != nil {
		offset = *fc.City.Timezone
	}
	zone := normalize.ZoneFromOffset("", offset)
	cond := common.At(cur.Weather, 0)

	report := weather.WeatherReport{
		Current: weather.Current{
			Temperature:   normalize.ToCelsius(common.OrZero(cur.Main.Temp), units),
			FeelsLike:     normalize.ToCelsius(common.OrZero(cur.Main.FeelsLike), units),
			Description:   openWeatherDescription(cond),
			Icon:          mapOpenWeatherIcon(cond),
			Humidity:      common.OrZero(cur.Main.Humidity),
			WindSpeed:     normalize.MsToKmh(common.OrZero(cur.Wind.Speed)),
			WindDirection: common.OrZero(cur.Wind.Deg),
			Pressure:      common.OrZero(cur.Main.Pressure),
			Visibility:    common.OrZero(cur.Visibility),
			Sunrise:       openWeatherClock(cur.Sys.Sunrise, zone),
			Sunset:        openWeatherClock(cur.Sys.Sunset, zone),
		},
	}

	samples := make([]normalize.Sample, 0, len(fc.List))
	for _, item := range fc.List {
		c := common.At(item.Weather, 0)
		samples = append(samples, normalize.Sample{
			Time:          time.Unix(item.Dt, 0).In(zone),
			Temperature:   normalize.ToCelsius(common.OrZero(item.Main.Temp), units),
			Icon:          mapOpenWeatherIcon(c),
			Description:   openWeatherDescription(c),
			Precipitation: popPercent(item.Pop),
		})
	}

	for _, s := range normalize.Downsample(samples, openWeatherHourly) {
		report.Hourly = append(report.Hourly, weather.HourlyPoint{
			Time:          normalize.HourLabel(s.Time),
			Temperature:   s.Temperature,
			Icon:          s.Icon,
			Precipitation: s.Precipitation,
		})
	}

	for _, b := range normalize.GroupIntoDailyBuckets(samples, zone) {
		report.Daily = append(report.Daily, weather.DailyPoint{
			Date:          b.Label,
			MaxTemp:       b.MaxTemp,
			MinTemp:       b.MinTemp,
			Icon:          b.Icon,
			Description:   b.Description,
			Precipitation: b.Precipitation,
		})
	}

	return report
}

func openWeatherClock(ts *int64, zone *time.Location) string {
	if ts == nil {
		return common.Unknown
	}
	return normalize.EpochToLocalTime(*ts, zone)
}

func popPercent(pop *float64) float64 {
	return math.Round(common.OrZero(pop) * 100)
}

// openWeatherDescription capitalises descriptions like "light rain".
func openWeatherDescription(c openWeatherCondition) string {
	d := common.OrUnknown(c.Description)
	r, size := utf8.DecodeRuneInString(d)
	return string(unicode.ToUpper(r)) + d[size:]
}

var openWeatherIcons = map[string]string{
	"01d": "☀️", "01n": "🌙",
	"02d": "🌤️", "02n": "☁️",
	"03d": "⛅", "03n": "☁️",
	"04d": "☁️", "04n": "☁️",
	"09d": "🌧️", "09n": "🌧️",
	"10d": "🌦️", "10n": "🌧️",
	"11d": "⛈️", "11n": "⛈️",
	"13d": "🌨️", "13n": "🌨️",
	"50d": "🌫️", "50n": "🌫️",
}

// mapOpenWeatherIcon prefers the icon code and falls back to the condition group.
func mapOpenWeatherIcon(c openWeatherCondition) string {
	if c.Icon != nil {
		if icon, ok := openWeatherIcons[*c.Icon]; ok {
			return icon
		}
	}

	group := strings.ToLower(common.OrUnknown(c.Main))
	switch {
	case common.HasAny(group, "thunder"):
		return "⛈️"
	case common.HasAny(group, "snow"):
		return "🌨️"
	case common.HasAny(group, "rain", "drizzle"):
		return "🌧️"
	case common.HasAny(group, "mist", "fog", "haze", "smoke", "dust"):
		return "🌫️"
	case common.HasAny(group, "cloud"):
		return "☁️"
	default:
		return "☀️"
	}
}

var _ weather.WeatherProvider = (*OpenWeatherProvider)(nil)
