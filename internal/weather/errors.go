package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable is returned when a weather or air quality call fails.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrGeocodingUnavailable is returned by geocoders that could not answer.
	ErrGeocodingUnavailable = errors.New("geocoding unavailable")
	// ErrMalformedPayload marks an upstream body that could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidCoordinates is returned for latitude/longitude outside their ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// AggregationError reports a mandatory source that failed during aggregation.
// It matches ErrUpstreamUnavailable and whatever the provider returned.
type AggregationError struct {
	Source   string // "weather" or "air_quality"
	Provider string
	Err      error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s from %s: %v", e.Source, e.Provider, e.Err)
}

func (e *AggregationError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}
