package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// ClientOptions configures an OpenWeatherClient.
type ClientOptions struct {
	// HTTPClient overrides the transport (optional).
	HTTPClient *http.Client

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	APIKey string

	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
}

// OpenWeatherClient queries the OpenWeatherMap API in metric units.
type OpenWeatherClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewOpenWeatherClient creates a client.
func NewOpenWeatherClient(opts ClientOptions) *OpenWeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &OpenWeatherClient{http: opts.HTTPClient, baseURL: opts.BaseURL, apiKey: opts.APIKey}
}

type owmResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
}

type owmError struct {
	Message string `json:"message"`
}

// Current fetches the weather for city.
func (c *OpenWeatherClient) Current(ctx context.Context, city string) (Report, error) {
	if c.apiKey == "" {
		return Report{}, ErrNoAPIKey
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return Report{}, fmt.Errorf("%w: empty city", ErrCityNotFound)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Report{}, fmt.Errorf("failed to read weather response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Report{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	case resp.StatusCode != http.StatusOK:
		var e owmError
		_ = json.Unmarshal(body, &e)
		return Report{}, fmt.Errorf("weather API returned %d: %s", resp.StatusCode, e.Message)
	}

	var data owmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Report{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	r := Report{
		City:       data.Name,
		TempC:      data.Main.Temp,
		FeelsLikeC: data.Main.FeelsLike,
		Humidity:   data.Main.Humidity,
	}
	if r.City == "" {
		r.City = city
	}
	if len(data.Weather) > 0 {
		r.Condition = data.Weather[0].Main
		r.Description = data.Weather[0].Description
		r.Icon = data.Weather[0].Icon
	}
	if r.Condition == "" {
		r.Condition = DefaultReport(city).Condition
	}
	return r, nil
}
