package providers

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	OpenMeteoAirName           = "openmeteo-air"
	DefaultOpenMeteoAirBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	OpenWeatherAirName = "openweathermap-air"
)

// OpenMeteoAirProvider reads current pollutants from the Open-Meteo air
// quality API. Its us_aqi field is already on the US EPA scale, so the
// reported index is trusted when present.
type OpenMeteoAirProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoAirProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoAirProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoAirBaseURL
	}
	return &OpenMeteoAirProvider{
		name:    OpenMeteoAirName,
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker(OpenMeteoAirName, cfg.Breaker, cfg.Logger),
	}
}

func (p *OpenMeteoAirProvider) Name() string { return p.name }

func (p *OpenMeteoAirProvider) AQIPolicy() weather.AQIPolicy { return weather.PolicyProviderEPA }

func (p *OpenMeteoAirProvider) FetchAirQuality(ctx context.Context, c weather.Coordinates) (weather.AirReading, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(c.Lat))
	values.Set("longitude", formatCoord(c.Lon))
	values.Set("current", "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone,european_aqi,us_aqi")

	var payload openMeteoAir
	if err := fetchJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.AirReading{}, err
	}
	return adaptOpenMeteoAir(payload), nil
}

type openMeteoAir struct {
	Current struct {
		PM10           *float64 `json:"pm10"`
		PM25           *float64 `json:"pm2_5"`
		CarbonMonoxide *float64 `json:"carbon_monoxide"`
		NO2            *float64 `json:"nitrogen_dioxide"`
		SO2            *float64 `json:"sulphur_dioxide"`
		Ozone          *float64 `json:"ozone"`
		EuropeanAQI    *float64 `json:"european_aqi"`
		USAQI          *float64 `json:"us_aqi"`
	} `json:"current"`
}

// adaptOpenMeteoAir keeps concentrations in µg/m³ as reported.
// european_aqi is decoded but not used: it is not on the EPA scale.
func adaptOpenMeteoAir(p openMeteoAir) weather.AirReading {
	cur := p.Current
	return weather.AirReading{
		PM25:        common.OrZero(cur.PM25),
		PM10:        common.OrZero(cur.PM10),
		NO2:         common.OrZero(cur.NO2),
		SO2:         common.OrZero(cur.SO2),
		O3:          common.OrZero(cur.Ozone),
		CO:          common.OrZero(cur.CarbonMonoxide),
		ProviderAQI: int(math.Round(common.OrZero(cur.USAQI))),
	}
}

// OpenWeatherAirProvider reads the OpenWeatherMap air pollution API. Its
// "aqi" is a 1-5 ordinal, so the index is always derived from PM2.5.
type OpenWeatherAirProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherAirProvider(cfg HTTPClientConfig, baseURL, apiKey string) *OpenWeatherAirProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherAirProvider{
		name:    OpenWeatherAirName,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker(OpenWeatherAirName, cfg.Breaker, cfg.Logger),
	}
}

func (p *OpenWeatherAirProvider) Name() string { return p.name }

func (p *OpenWeatherAirProvider) AQIPolicy() weather.AQIPolicy { return weather.PolicyDerivePM25 }

func (p *OpenWeatherAirProvider) FetchAirQuality(ctx context.Context, c weather.Coordinates) (weather.AirReading, error) {
	if p.apiKey == "" {
		return weather.AirReading{}, upstreamErr(p.name, errMissingKey)
	}

	values := url.Values{}
	values.Set("lat", formatCoord(c.Lat))
	values.Set("lon", formatCoord(c.Lon))
	values.Set("appid", p.apiKey)

	var payload openWeatherAir
	if err := fetchJSON(ctx, p.name, p.httpCfg, p.circuit, p.baseURL+"/air_pollution?"+values.Encode(), &payload); err != nil {
		return weather.AirReading{}, err
	}
	return adaptOpenWeatherAir(payload), nil
}

type openWeatherAir struct {
	List []struct {
		Main struct {
			AQI *int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   *float64 `json:"co"`
			NO2  *float64 `json:"no2"`
			O3   *float64 `json:"o3"`
			SO2  *float64 `json:"so2"`
			PM25 *float64 `json:"pm2_5"`
			PM10 *float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

// adaptOpenWeatherAir reads the first entry; components are µg/m³.
// The ordinal main.aqi is dropped so it cannot leak into the EPA index.
func adaptOpenWeatherAir(p openWeatherAir) weather.AirReading {
	if len(p.List) == 0 {
		return weather.AirReading{}
	}
	comp := p.List[0].Components
	return weather.AirReading{
		PM25: common.OrZero(comp.PM25),
		PM10: common.OrZero(comp.PM10),
		NO2:  common.OrZero(comp.NO2),
		SO2:  common.OrZero(comp.SO2),
		O3:   common.OrZero(comp.O3),
		CO:   common.OrZero(comp.CO),
	}
}

var (
	_ weather.AirQualityProvider = (*OpenMeteoAirProvider)(nil)
	_ weather.AirQualityProvider = (*OpenWeatherAirProvider)(nil)
)
