package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BreakerConfig controls the per-provider circuit breaker. Calls are never
// retried; an open breaker fails fast with weather.ErrUpstreamUnavailable.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig mirrors the settings every provider used before they became configurable.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            1 * time.Minute,
		Timeout:             2 * time.Minute,
		ConsecutiveFailures: 5,
	}
}

// UpstreamObserver receives one observation per upstream call.
type UpstreamObserver interface {
	ObserveUpstream(provider, outcome string, d time.Duration)
}

// HTTPClientConfig bundles the HTTP client and resilience settings shared by providers.
type HTTPClientConfig struct {
	Client   *http.Client
	Breaker  BreakerConfig
	Observer UpstreamObserver
	Logger   zerolog.Logger
}

// Upstream call outcomes.
const (
	outcomeOK          = "ok"
	outcomeRateLimited = "rate_limited"
	outcomeServerError = "server_error"
	outcomeUnexpected  = "unexpected_status"
	outcomeCircuitOpen = "circuit_open"
	outcomeTransport   = "transport_error"
	outcomeMalformed   = "malformed"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errMissingKey   = errors.New("api key is not configured")
)

func newCircuitBreaker(name string, cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	trip := cfg.ConsecutiveFailures
	if trip == 0 {
		trip = DefaultBreakerConfig().ConsecutiveFailures
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// fetchJSON executes one GET through the breaker and decodes the body into out.
// Every failure wraps weather.ErrUpstreamUnavailable; undecodable bodies also
// wrap weather.ErrMalformedPayload.
func fetchJSON(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	url string,
	out any,
) error {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if cfg.Observer != nil {
			cfg.Observer.ObserveUpstream(provider, outcome, time.Since(start))
		}
	}()

	if cfg.Client == nil {
		outcome = outcomeTransport
		return upstreamErr(provider, errNoHTTPClient)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := cfg.Client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		// Handle rate limiting and server errors explicitly.
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		outcome = classify(err)
		if outcome == outcomeCircuitOpen {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		cfg.Logger.Debug().Err(err).Str("provider", provider).Msg("upstream request failed")
		return upstreamErr(provider, err)
	}

	body, ok := result.([]byte)
	if !ok {
		outcome = outcomeTransport
		return fmt.Errorf("%w: %s: unexpected result type from circuit breaker", weather.ErrUpstreamUnavailable, provider)
	}

	if err := json.Unmarshal(body, out); err != nil {
		outcome = outcomeMalformed
		return fmt.Errorf("%w: %s: %w: %v", weather.ErrUpstreamUnavailable, provider, weather.ErrMalformedPayload, err)
	}
	return nil
}

func upstreamErr(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", weather.ErrUpstreamUnavailable, provider, err)
}

func classify(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return outcomeCircuitOpen
	case errors.Is(err, errRateLimited):
		return outcomeRateLimited
	case errors.Is(err, errServerError):
		return outcomeServerError
	case errors.Is(err, errUnexpected):
		return outcomeUnexpected
	default:
		return outcomeTransport
	}
}
