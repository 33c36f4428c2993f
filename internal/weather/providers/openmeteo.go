package providers

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/normalize"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	OpenMeteoName           = "openmeteo"
	DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

	openMeteoLocalLayout = "2006-01-02T15:04"
	openMeteoDateLayout  = "2006-01-02"
)

// openMeteoHourly keeps the next 24 hourly samples.
var openMeteoHourly = normalize.Strategy{Step: 1, Limit: 24}

// OpenMeteoProvider implements weather.WeatherProvider for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    OpenMeteoName,
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker(OpenMeteoName, cfg.Breaker, cfg.Logger),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, c weather.Coordinates) (weather.WeatherReport, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(c.Lat))
	values.Set("longitude", formatCoord(c.Lon))
	values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,weather_code,wind_speed_10m,wind_direction_10m,pressure_msl,visibility,uv_index")
	values.Set("hourly", "temperature_2m,weather_code,precipitation_probability,is_day")
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,sunrise,sunset,precipitation_probability_max")
	values.Set("timezone", "auto")

	var payload openMeteoForecast
	if err := fetchJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.WeatherReport{}, err
	}

	return adaptOpenMeteo(payload), nil
}

type openMeteoForecast struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Current          struct {
		Temperature         *float64 `json:"temperature_2m"`
		RelativeHumidity    *float64 `json:"relative_humidity_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		IsDay               *int     `json:"is_day"`
		WeatherCode         *int     `json:"weather_code"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
		WindDirection       *float64 `json:"wind_direction_10m"`
		PressureMSL         *float64 `json:"pressure_msl"`
		Visibility          *float64 `json:"visibility"`
		UVIndex             *float64 `json:"uv_index"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		WeatherCode              []*int     `json:"weather_code"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		IsDay                    []*int     `json:"is_day"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		TemperatureMin              []*float64 `json:"temperature_2m_min"`
		Sunrise                     []string   `json:"sunrise"`
		Sunset                      []string   `json:"sunset"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// adaptOpenMeteo maps a forecast payload to canonical units. Open-Meteo already
// reports °C, km/h, hPa and metres, so values pass through; wind is rounded.
func adaptOpenMeteo(p openMeteoForecast) weather.WeatherReport {
	zone := normalize.ZoneFromOffset(p.Timezone, p.UTCOffsetSeconds)
	cur := p.Current
	isDay := cur.IsDay == nil || *cur.IsDay == 1

	report := weather.WeatherReport{
		Current: weather.Current{
			Temperature:   common.OrZero(cur.Temperature),
			FeelsLike:     common.OrZero(cur.ApparentTemperature),
			Description:   mapOpenMeteoDescription(cur.WeatherCode),
			Icon:          mapOpenMeteoIcon(common.OrZero(cur.WeatherCode), isDay),
			Humidity:      common.OrZero(cur.RelativeHumidity),
			WindSpeed:     roundKmh(common.OrZero(cur.WindSpeed)),
			WindDirection: common.OrZero(cur.WindDirection),
			Pressure:      common.OrZero(cur.PressureMSL),
			Visibility:    common.OrZero(cur.Visibility),
			UVIndex:       common.OrZero(cur.UVIndex),
			Sunrise:       openMeteoClock(common.At(p.Daily.Sunrise, 0), zone),
			Sunset:        openMeteoClock(common.At(p.Daily.Sunset, 0), zone),
		},
	}

	hourly := make([]weather.HourlyPoint, 0, len(p.Hourly.Time))
	for i, ts := range p.Hourly.Time {
		label := common.Unknown
		if t, err := time.ParseInLocation(openMeteoLocalLayout, ts, zone); err == nil {
			label = normalize.HourLabel(t)
		}
		dayFlag := common.At(p.Hourly.IsDay, i)
		hourly = append(hourly, weather.HourlyPoint{
			Time:          label,
			Temperature:   common.OrZero(common.At(p.Hourly.Temperature, i)),
			Icon:          mapOpenMeteoIcon(common.OrZero(common.At(p.Hourly.WeatherCode, i)), dayFlag == nil || *dayFlag == 1),
			Precipitation: common.OrZero(common.At(p.Hourly.PrecipitationProbability, i)),
		})
	}
	report.Hourly = normalize.Downsample(hourly, openMeteoHourly)

	// Daily aggregates come precomputed, so they pass through unchanged.
	report.Daily = make([]weather.DailyPoint, 0, len(p.Daily.Time))
	for i, ds := range p.Daily.Time {
		day, err := time.ParseInLocation(openMeteoDateLayout, ds, zone)
		label := normalize.DayLabel(i, day)
		if err != nil && i > 0 {
			label = common.Unknown
		}
		dayCode := common.At(p.Daily.WeatherCode, i)
		report.Daily = append(report.Daily, weather.DailyPoint{
			Date:          label,
			MaxTemp:       common.OrZero(common.At(p.Daily.TemperatureMax, i)),
			MinTemp:       common.OrZero(common.At(p.Daily.TemperatureMin, i)),
			Icon:          mapOpenMeteoIcon(common.OrZero(dayCode), true),
			Description:   mapOpenMeteoDescription(dayCode),
			Precipitation: common.OrZero(common.At(p.Daily.PrecipitationProbabilityMax, i)),
		})
	}

	return report
}

func openMeteoClock(ts string, zone *time.Location) string {
	t, err := time.ParseInLocation(openMeteoLocalLayout, ts, zone)
	if err != nil {
		return common.Unknown
	}
	return normalize.ClockLabel(t)
}

func roundKmh(v float64) float64 {
	return math.Round(v)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var _ weather.WeatherProvider = (*OpenMeteoProvider)(nil)
