// Package advice asks an OpenAI-compatible chat completions endpoint for a
// short recommendation based on a weather snapshot.
package advice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/i474232898/weather-dashboard/internal/aqi"
	"github.com/i474232898/weather-dashboard/internal/normalize"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Fallback is returned when the model answers with no content.
const Fallback = "Unable to generate advice at this time."

const systemPrompt = "You are a weather advisor. Give practical, concise advice for the current conditions."

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("advice is not configured")
	// ErrUpstream is returned when the completions endpoint fails.
	ErrUpstream = errors.New("advice upstream failed")
)

// Conditions is the subset of a snapshot the prompt is built from.
type Conditions struct {
	Temperature float64      `json:"temperature"`
	FeelsLike   float64      `json:"feelsLike"`
	Conditions  string       `json:"conditions"`
	Humidity    float64      `json:"humidity"`
	WindSpeed   float64      `json:"windSpeed"`
	UVIndex     float64      `json:"uvIndex"`
	AQI         int          `json:"aqi"`
	AQICategory aqi.Category `json:"aqiCategory"`
	PM25        float64      `json:"pm25"`
}

// ConditionsFromSnapshot extracts prompt inputs from s.
func ConditionsFromSnapshot(s weather.WeatherSnapshot) Conditions {
	return Conditions{
		Temperature: s.Current.Temperature,
		FeelsLike:   s.Current.FeelsLike,
		Conditions:  s.Current.Description,
		Humidity:    s.Current.Humidity,
		WindSpeed:   s.Current.WindSpeed,
		UVIndex:     s.Current.UVIndex,
		AQI:         s.AirQuality.AQI,
		AQICategory: s.AirQuality.Category,
		PM25:        s.AirQuality.PM25,
	}
}

// BuildPrompt renders the user message for c.
func BuildPrompt(c Conditions) string {
	var b strings.Builder
	b.WriteString("Based on these weather conditions, give two or three sentences of practical advice.\n\n")
	fmt.Fprintf(&b, "Temperature: %.1f°C (feels like %.1f°C)\n", c.Temperature, c.FeelsLike)
	fmt.Fprintf(&b, "Conditions: %s\n", c.Conditions)
	fmt.Fprintf(&b, "Humidity: %.0f%%\n", c.Humidity)
	fmt.Fprintf(&b, "Wind speed: %.0f km/h\n", c.WindSpeed)
	fmt.Fprintf(&b, "UV index: %.1f (%s)\n", c.UVIndex, normalize.UVLevel(c.UVIndex))
	fmt.Fprintf(&b, "Air quality index: %d (%s)\n", c.AQI, c.AQICategory)
	fmt.Fprintf(&b, "PM2.5: %.1f µg/m³\n\n", c.PM25)
	b.WriteString("Cover activities, clothing and health precautions where relevant.")
	return b.String()
}

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client calls the chat completions API.
type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(hc *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	var rc *resty.Client
	if hc != nil {
		rc = resty.NewWithClient(hc)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)

	return &Client{http: rc, cfg: cfg}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Advise returns a recommendation for cond, or Fallback when the model replies empty.
func (c *Client) Advise(ctx context.Context, cond Conditions) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: BuildPrompt(cond)},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status code %d", ErrUpstream, resp.StatusCode())
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return Fallback, nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
