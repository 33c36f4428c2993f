package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	NominatimName           = "nominatim"
	DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent        = "weather-dashboard/1.0"

	OpenMeteoGeocodingName           = "openmeteo-geocoding"
	DefaultOpenMeteoGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"
)

func newRestyClient(hc *http.Client, baseURL, userAgent string) *resty.Client {
	var client *resty.Client
	if hc != nil {
		client = resty.NewWithClient(hc)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(baseURL).SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return client
}

// getJSON runs a GET with query params and decodes a 2xx body into out.
// Failures wrap weather.ErrGeocodingUnavailable.
func getJSON(ctx context.Context, client *resty.Client, provider, path string, params map[string]string, obs UpstreamObserver, out any) error {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if obs != nil {
			obs.ObserveUpstream(provider, outcome, time.Since(start))
		}
	}()

	resp, err := client.R().SetContext(ctx).SetQueryParams(params).Get(path)
	if err != nil {
		outcome = outcomeTransport
		return fmt.Errorf("%w: %s: %w", weather.ErrGeocodingUnavailable, provider, err)
	}

	if resp.StatusCode() != http.StatusOK {
		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			outcome = outcomeRateLimited
		case resp.StatusCode() >= 500:
			outcome = outcomeServerError
		default:
			outcome = outcomeUnexpected
		}
		return fmt.Errorf("%w: %s: status code %d", weather.ErrGeocodingUnavailable, provider, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		outcome = outcomeMalformed
		return fmt.Errorf("%w: %s: %w: %v", weather.ErrGeocodingUnavailable, provider, weather.ErrMalformedPayload, err)
	}
	return nil
}

// NominatimGeocoder implements weather.ReverseGeocoder on OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	client   *resty.Client
	observer UpstreamObserver
}

// NewNominatimGeocoder creates a reverse geocoder. Nominatim rejects requests
// without an identifying User-Agent, so an empty one falls back to DefaultUserAgent.
func NewNominatimGeocoder(cfg HTTPClientConfig, baseURL, userAgent string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimGeocoder{
		client:   newRestyClient(cfg.Client, baseURL, userAgent),
		observer: cfg.Observer,
	}
}

func (g *NominatimGeocoder) Name() string { return NominatimName }

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, c weather.Coordinates) (string, error) {
	params := map[string]string{
		"format": "json",
		"lat":    strconv.FormatFloat(c.Lat, 'f', -1, 64),
		"lon":    strconv.FormatFloat(c.Lon, 'f', -1, 64),
		"zoom":   "10",
	}

	var payload nominatimReverse
	if err := getJSON(ctx, g.client, NominatimName, "/reverse", params, g.observer, &payload); err != nil {
		return "", err
	}
	return adaptNominatim(payload), nil
}

type nominatimReverse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// adaptNominatim renders "City, Country", then "Country", then UnknownLocation.
func adaptNominatim(p nominatimReverse) string {
	a := p.Address
	place := common.FirstNonEmpty(a.City, a.Town, a.Village)
	switch {
	case place != "" && a.Country != "":
		return place + ", " + a.Country
	case place != "":
		return place
	case a.Country != "":
		return a.Country
	default:
		return weather.UnknownLocation
	}
}

// OpenMeteoGeocoder implements weather.ForwardGeocoder for place search.
type OpenMeteoGeocoder struct {
	client   *resty.Client
	observer UpstreamObserver
}

func NewOpenMeteoGeocoder(cfg HTTPClientConfig, baseURL string) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoGeocodingBaseURL
	}
	return &OpenMeteoGeocoder{
		client:   newRestyClient(cfg.Client, baseURL, ""),
		observer: cfg.Observer,
	}
}

// Search returns up to limit candidates for query; an empty list is not an error.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	if limit <= 0 {
		limit = 5
	}
	params := map[string]string{
		"name":     query,
		"count":    strconv.Itoa(limit),
		"language": "en",
		"format":   "json",
	}

	var payload openMeteoSearch
	if err := getJSON(ctx, g.client, OpenMeteoGeocodingName, "/search", params, g.observer, &payload); err != nil {
		return nil, err
	}

	places := make([]weather.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		places = append(places, weather.Place{
			Name:      common.OrUnknown(r.Name),
			Country:   common.OrUnknown(r.Country),
			Admin1:    admin1(r.Admin1),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return places, nil
}

func admin1(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

type openMeteoSearch struct {
	Results []struct {
		Name      *string `json:"name"`
		Country   *string `json:"country"`
		Admin1    *string `json:"admin1"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

var (
	_ weather.ReverseGeocoder = (*NominatimGeocoder)(nil)
	_ weather.ForwardGeocoder = (*OpenMeteoGeocoder)(nil)
)
