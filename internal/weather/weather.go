// Package weather fetches the current conditions used as suggestion
// context. Failures never block a suggestion: callers fall back to the last
// good report for the city, then to DefaultReport.
package weather

import (
	"context"
	"errors"
	"strings"

	"github.com/runger/wardrobe/internal/outfits/inventory"
)

var (
	// ErrUnavailable is returned when no fresh or cached report exists.
	ErrUnavailable = errors.New("weather provider unavailable")

	// ErrNoAPIKey is returned by clients configured without a key.
	ErrNoAPIKey = errors.New("weather API key not configured")

	// ErrCityNotFound is returned when the provider does not know the city.
	ErrCityNotFound = errors.New("city not found")
)

// Report is the current weather for a city.
type Report struct {
	City        string  `json:"city"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Humidity    int     `json:"humidity"`
	Stale       bool    `json:"stale,omitempty"`
}

// Context converts the report into the engine's weather context.
func (r Report) Context() inventory.Weather {
	return inventory.Weather{TempC: r.TempC, Condition: r.Condition}.Normalize()
}

// Provider returns the current weather for a city.
type Provider interface {
	Current(ctx context.Context, city string) (Report, error)
}

// DefaultReport is the neutral weather used when nothing better is known.
func DefaultReport(city string) Report {
	return Report{
		City:        city,
		Condition:   inventory.DefaultCondition,
		Description: "no weather data",
		TempC:       inventory.DefaultTempC,
		FeelsLikeC:  inventory.DefaultTempC,
		Humidity:    50,
		Icon:        "01d",
	}
}

var emoji = map[string]string{
	"clear":        "☀️",
	"clouds":       "☁️",
	"rain":         "🌧️",
	"drizzle":      "🌦️",
	"thunderstorm": "⛈️",
	"snow":         "❄️",
	"mist":         "🌫️",
	"fog":          "🌫️",
}

// Emoji returns a display glyph for a condition.
func Emoji(condition string) string {
	if e, ok := emoji[strings.ToLower(strings.TrimSpace(condition))]; ok {
		return e
	}
	return "🌤️"
}
