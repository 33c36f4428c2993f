// Package app wires configuration into providers, the aggregator and stores.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/advice"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// App holds the long-lived components shared by the HTTP server, scheduler and CLI.
type App struct {
	Config     *config.AppConfig
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Aggregator *weather.Aggregator
	Service    *weather.Service
	Search     weather.ForwardGeocoder
	Locations  store.LocationStore
	Advice     *advice.Client
	Snapshots  *store.MemoryStore

	closers []func() error
}

// Build constructs an App. Providers are selected here, once, from configuration.
func Build(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*App, error) {
	m := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	httpCfg := providers.HTTPClientConfig{
		Client: httpClient,
		Breaker: providers.BreakerConfig{
			MaxRequests:         cfg.Breaker.MaxRequests,
			Interval:            cfg.Breaker.Interval,
			Timeout:             cfg.Breaker.Timeout,
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		},
		Observer: m,
		Logger:   logger,
	}

	wp, err := newWeatherProvider(cfg, httpCfg)
	if err != nil {
		return nil, err
	}
	ap, err := newAirQualityProvider(cfg, httpCfg)
	if err != nil {
		return nil, err
	}
	geo := providers.NewNominatimGeocoder(httpCfg, cfg.NominatimURL, cfg.NominatimUserAgent)

	agg := weather.NewAggregator(wp, ap, geo,
		weather.WithLogger(logger),
		weather.WithObserver(m),
	)

	snapshots := store.NewMemoryStore(cfg.SnapshotMaxAge)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Aggregator: agg,
		Service:    weather.NewService(agg, snapshots, logger),
		Search:     providers.NewOpenMeteoGeocoder(httpCfg, cfg.OpenMeteoGeocodingURL),
		Snapshots:  snapshots,
		Advice: advice.NewClient(&http.Client{Timeout: cfg.Advice.Timeout}, advice.Config{
			APIKey:  cfg.Advice.APIKey,
			BaseURL: cfg.Advice.BaseURL,
			Model:   cfg.Advice.Model,
		}),
	}

	locations, err := a.newLocationStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Locations = locations

	logger.Info().
		Str("weather", wp.Name()).
		Str("air_quality", ap.Name()).
		Str("aqi_policy", string(ap.AQIPolicy())).
		Str("location_store", cfg.LocationStore).
		Bool("advice", a.Advice.Enabled()).
		Msg("application built")

	return a, nil
}

func newWeatherProvider(cfg *config.AppConfig, httpCfg providers.HTTPClientConfig) (weather.WeatherProvider, error) {
	switch cfg.WeatherProvider {
	case config.ProviderOpenMeteo:
		return providers.NewOpenMeteoProvider(httpCfg, cfg.OpenMeteoURL), nil
	case config.ProviderOpenWeather:
		return providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.WeatherProvider)
	}
}

func newAirQualityProvider(cfg *config.AppConfig, httpCfg providers.HTTPClientConfig) (weather.AirQualityProvider, error) {
	switch cfg.AirQualityProvider {
	case config.ProviderOpenMeteo:
		return providers.NewOpenMeteoAirProvider(httpCfg, cfg.OpenMeteoAirURL), nil
	case config.ProviderOpenWeather:
		return providers.NewOpenWeatherAirProvider(httpCfg, cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown air quality provider %q", cfg.AirQualityProvider)
	}
}

func (a *App) newLocationStore(ctx context.Context) (store.LocationStore, error) {
	if a.Config.LocationStore != "redis" {
		return store.NewMemoryLocationStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", a.Config.Redis.Addr, err)
	}
	a.closers = append(a.closers, client.Close)

	return store.NewRedisLocationStore(client, a.Config.Redis.Key), nil
}

// Close releases external connections.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
