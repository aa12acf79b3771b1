package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runger/wardrobe/internal/outfits/engine"
	"github.com/runger/wardrobe/internal/outfits/profile"
	"github.com/runger/wardrobe/internal/weather"
)

// Config represents the wardrobe configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Scoring ScoringConfig `yaml:"scoring"`
	Profile ProfileConfig `yaml:"profile"`
	Weather WeatherConfig `yaml:"weather"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	Path          string `yaml:"path"`            // SQLite file (overrides default)
	LockTimeoutMs int    `yaml:"lock_timeout_ms"` // Wait for the advisory lock
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // Bound on each snapshot read in suggest
}

// EngineConfig holds candidate generation and selection settings.
type EngineConfig struct {
	Count         int     `yaml:"count"`          // Suggestions returned by default
	PerRoleCap    int     `yaml:"per_role_cap"`   // Items considered per role
	MaxCandidates int     `yaml:"max_candidates"` // Pool size handed to scoring
	MaxOverlap    float64 `yaml:"max_overlap"`    // Diversity threshold (share of slots)
	Workers       int     `yaml:"workers"`        // Scoring goroutines (0 = GOMAXPROCS)
}

// ScoringConfig holds the tunable factor constants.
type ScoringConfig struct {
	ColdBelowC      float64 `yaml:"cold_below_c"`      // Below this is cold
	HotAboveC       float64 `yaml:"hot_above_c"`       // Above this is hot
	PatternPenalty  float64 `yaml:"pattern_penalty"`   // Per extra busy pattern
	FreqHalfLife    float64 `yaml:"freq_half_life"`    // Wears that halve the frequency term
	RecencyFullDays float64 `yaml:"recency_full_days"` // Days for full recency credit
	BonusMin        float64 `yaml:"bonus_min"`         // Style bonus floor
	BonusMax        float64 `yaml:"bonus_max"`         // Style bonus ceiling
}

// ProfileConfig holds the learning constants.
type ProfileConfig struct {
	NeutralWeight float64 `yaml:"neutral_weight"` // Starting weight, contributes no bonus
	WearStep      float64 `yaml:"wear_step"`      // Added per wear
	RatingStep    float64 `yaml:"rating_step"`    // Added or removed per rating
	WeightMin     float64 `yaml:"weight_min"`     // Lower clamp
	WeightMax     float64 `yaml:"weight_max"`     // Upper clamp
}

// WeatherConfig holds weather provider settings.
type WeatherConfig struct {
	APIKey            string `yaml:"api_key"`             // OpenWeatherMap key (empty = offline)
	City              string `yaml:"city"`                // Default city
	BaseURL           string `yaml:"base_url"`            // Endpoint override
	TimeoutMs         int    `yaml:"timeout_ms"`          // HTTP timeout
	RequestsPerMinute int    `yaml:"requests_per_minute"` // Upstream rate limit
	FailureThreshold  int    `yaml:"failure_threshold"`   // Consecutive failures that open the circuit
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			LockTimeoutMs: 5000,
			ReadTimeoutMs: 2000,
		},
		Engine: EngineConfig{
			Count:         engine.DefaultCount,
			PerRoleCap:    8,
			MaxCandidates: 300,
			MaxOverlap:    0.5,
		},
		Scoring: ScoringConfig{
			ColdBelowC:      18,
			HotAboveC:       28,
			PatternPenalty:  5,
			FreqHalfLife:    5,
			RecencyFullDays: 14,
			BonusMin:        -10,
			BonusMax:        15,
		},
		Profile: ProfileConfig{
			NeutralWeight: 1.0,
			WearStep:      0.1,
			RatingStep:    0.5,
			WeightMin:     0,
			WeightMax:     5,
		},
		Weather: WeatherConfig{
			City:              "London",
			BaseURL:           weather.DefaultBaseURL,
			TimeoutMs:         5000,
			RequestsPerMinute: 30,
			FailureThreshold:  3,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveToFile(DefaultPaths().ConfigFile())
}

// SaveToFile saves the configuration to the specified file. The file may
// hold an API key, so it is written owner-only.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns a configuration value by "section.key".
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "store":
		return c.getStoreField(field)
	case "engine":
		return c.getEngineField(field)
	case "scoring":
		return c.getScoringField(field)
	case "profile":
		return c.getProfileField(field)
	case "weather":
		return c.getWeatherField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by "section.key".
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "store":
		return c.setStoreField(field, value)
	case "engine":
		return c.setEngineField(field, value)
	case "scoring":
		return c.setScoringField(field, value)
	case "profile":
		return c.setProfileField(field, value)
	case "weather":
		return c.setWeatherField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getStoreField(field string) (string, error) {
	switch field {
	case "path":
		return c.Store.Path, nil
	case "lock_timeout_ms":
		return strconv.Itoa(c.Store.LockTimeoutMs), nil
	case "read_timeout_ms":
		return strconv.Itoa(c.Store.ReadTimeoutMs), nil
	default:
		return "", fmt.Errorf("unknown field: store.%s", field)
	}
}

func (c *Config) setStoreField(field, value string) error {
	switch field {
	case "path":
		c.Store.Path = value
	case "lock_timeout_ms":
		return setNonNegativeInt(&c.Store.LockTimeoutMs, field, value)
	case "read_timeout_ms":
		return setNonNegativeInt(&c.Store.ReadTimeoutMs, field, value)
	default:
		return fmt.Errorf("unknown field: store.%s", field)
	}
	return nil
}

func (c *Config) getEngineField(field string) (string, error) {
	switch field {
	case "count":
		return strconv.Itoa(c.Engine.Count), nil
	case "per_role_cap":
		return strconv.Itoa(c.Engine.PerRoleCap), nil
	case "max_candidates":
		return strconv.Itoa(c.Engine.MaxCandidates), nil
	case "max_overlap":
		return formatFloat(c.Engine.MaxOverlap), nil
	case "workers":
		return strconv.Itoa(c.Engine.Workers), nil
	default:
		return "", fmt.Errorf("unknown field: engine.%s", field)
	}
}

func (c *Config) setEngineField(field, value string) error {
	switch field {
	case "count":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for count: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid count: must be >= 1 (got: %d)", v)
		}
		c.Engine.Count = v
	case "per_role_cap":
		return setPositiveInt(&c.Engine.PerRoleCap, field, value)
	case "max_candidates":
		return setPositiveInt(&c.Engine.MaxCandidates, field, value)
	case "max_overlap":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for max_overlap: %w", err)
		}
		if v < 0 || v > 1 {
			return errors.New("invalid max_overlap: must be between 0 and 1")
		}
		c.Engine.MaxOverlap = v
	case "workers":
		return setNonNegativeInt(&c.Engine.Workers, field, value)
	default:
		return fmt.Errorf("unknown field: engine.%s", field)
	}
	return nil
}

func (c *Config) scoringFields() map[string]*float64 {
	return map[string]*float64{
		"cold_below_c":      &c.Scoring.ColdBelowC,
		"hot_above_c":       &c.Scoring.HotAboveC,
		"pattern_penalty":   &c.Scoring.PatternPenalty,
		"freq_half_life":    &c.Scoring.FreqHalfLife,
		"recency_full_days": &c.Scoring.RecencyFullDays,
		"bonus_min":         &c.Scoring.BonusMin,
		"bonus_max":         &c.Scoring.BonusMax,
	}
}

func (c *Config) getScoringField(field string) (string, error) {
	p, ok := c.scoringFields()[field]
	if !ok {
		return "", fmt.Errorf("unknown field: scoring.%s", field)
	}
	return formatFloat(*p), nil
}

func (c *Config) setScoringField(field, value string) error {
	p, ok := c.scoringFields()[field]
	if !ok {
		return fmt.Errorf("unknown field: scoring.%s", field)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	*p = v
	return nil
}

func (c *Config) profileFields() map[string]*float64 {
	return map[string]*float64{
		"neutral_weight": &c.Profile.NeutralWeight,
		"wear_step":      &c.Profile.WearStep,
		"rating_step":    &c.Profile.RatingStep,
		"weight_min":     &c.Profile.WeightMin,
		"weight_max":     &c.Profile.WeightMax,
	}
}

func (c *Config) getProfileField(field string) (string, error) {
	p, ok := c.profileFields()[field]
	if !ok {
		return "", fmt.Errorf("unknown field: profile.%s", field)
	}
	return formatFloat(*p), nil
}

func (c *Config) setProfileField(field, value string) error {
	p, ok := c.profileFields()[field]
	if !ok {
		return fmt.Errorf("unknown field: profile.%s", field)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid %s: must be non-negative", field)
	}
	*p = v
	return nil
}

func (c *Config) getWeatherField(field string) (string, error) {
	switch field {
	case "api_key":
		return c.Weather.APIKey, nil
	case "city":
		return c.Weather.City, nil
	case "base_url":
		return c.Weather.BaseURL, nil
	case "timeout_ms":
		return strconv.Itoa(c.Weather.TimeoutMs), nil
	case "requests_per_minute":
		return strconv.Itoa(c.Weather.RequestsPerMinute), nil
	case "failure_threshold":
		return strconv.Itoa(c.Weather.FailureThreshold), nil
	default:
		return "", fmt.Errorf("unknown field: weather.%s", field)
	}
}

func (c *Config) setWeatherField(field, value string) error {
	switch field {
	case "api_key":
		c.Weather.APIKey = strings.TrimSpace(value)
	case "city":
		c.Weather.City = strings.TrimSpace(value)
	case "base_url":
		c.Weather.BaseURL = value
	case "timeout_ms":
		return setPositiveInt(&c.Weather.TimeoutMs, field, value)
	case "requests_per_minute":
		return setPositiveInt(&c.Weather.RequestsPerMinute, field, value)
	case "failure_threshold":
		return setPositiveInt(&c.Weather.FailureThreshold, field, value)
	default:
		return fmt.Errorf("unknown field: weather.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func setPositiveInt(dst *int, field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v < 1 {
		return fmt.Errorf("invalid %s: must be positive", field)
	}
	*dst = v
	return nil
}

func setNonNegativeInt(dst *int, field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid %s: must be non-negative", field)
	}
	*dst = v
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Store.LockTimeoutMs < 0 || c.Store.ReadTimeoutMs < 0 {
		return errors.New("store timeouts must be >= 0")
	}

	if c.Engine.Count < 1 {
		return fmt.Errorf("engine.count must be >= 1 (got: %d)", c.Engine.Count)
	}

	if c.Engine.PerRoleCap < 1 || c.Engine.MaxCandidates < 1 {
		return errors.New("engine.per_role_cap and engine.max_candidates must be >= 1")
	}

	if c.Engine.MaxOverlap < 0 || c.Engine.MaxOverlap > 1 {
		return fmt.Errorf("engine.max_overlap must be between 0 and 1 (got: %v)", c.Engine.MaxOverlap)
	}

	if c.Scoring.HotAboveC <= c.Scoring.ColdBelowC {
		return fmt.Errorf("scoring.hot_above_c (%v) must be above scoring.cold_below_c (%v)",
			c.Scoring.HotAboveC, c.Scoring.ColdBelowC)
	}

	if c.Scoring.FreqHalfLife <= 0 || c.Scoring.RecencyFullDays <= 0 {
		return errors.New("scoring.freq_half_life and scoring.recency_full_days must be > 0")
	}

	if c.Scoring.BonusMin > 0 || c.Scoring.BonusMax < 0 {
		return errors.New("scoring.bonus_min must be <= 0 and scoring.bonus_max >= 0")
	}

	if c.Profile.WeightMax <= c.Profile.WeightMin {
		return errors.New("profile.weight_max must be above profile.weight_min")
	}

	if c.Profile.NeutralWeight < c.Profile.WeightMin || c.Profile.NeutralWeight > c.Profile.WeightMax {
		return errors.New("profile.neutral_weight must lie within the weight bounds")
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("WARDROBE_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("WARDROBE_WEATHER_API_KEY"); v != "" {
		c.Weather.APIKey = v
	}
	if v := os.Getenv("WARDROBE_CITY"); v != "" {
		c.Weather.City = v
	}
	if v := os.Getenv("WARDROBE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("WARDROBE_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"store.path",
		"engine.count",
		"engine.max_overlap",
		"scoring.cold_below_c",
		"scoring.hot_above_c",
		"profile.wear_step",
		"profile.rating_step",
		"weather.api_key",
		"weather.city",
		"log.level",
	}
}

// DatabasePath returns the configured database file, or the default.
func (c *Config) DatabasePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return DefaultPaths().DatabaseFile()
}

// EngineSettings converts the config into engine settings.
func (c *Config) EngineSettings() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Candidates.PerRoleCap = c.Engine.PerRoleCap
	cfg.Candidates.MaxCandidates = c.Engine.MaxCandidates
	cfg.Rank.MaxOverlap = c.Engine.MaxOverlap
	cfg.Workers = c.Engine.Workers
	cfg.StoreTimeout = time.Duration(c.Store.ReadTimeoutMs) * time.Millisecond

	s := &cfg.Scoring
	s.ColdBelowC = c.Scoring.ColdBelowC
	s.HotAboveC = c.Scoring.HotAboveC
	s.PatternPenalty = c.Scoring.PatternPenalty
	s.FreqHalfLife = c.Scoring.FreqHalfLife
	s.RecencyFullDays = c.Scoring.RecencyFullDays
	s.BonusMin = c.Scoring.BonusMin
	s.BonusMax = c.Scoring.BonusMax
	s.NeutralWeight = c.Profile.NeutralWeight
	return cfg
}

// ProfileSettings converts the config into profile learning settings.
func (c *Config) ProfileSettings() profile.Config {
	cfg := profile.DefaultConfig()
	cfg.NeutralWeight = c.Profile.NeutralWeight
	cfg.WearStep = c.Profile.WearStep
	cfg.RatingStep = c.Profile.RatingStep
	cfg.WeightMin = c.Profile.WeightMin
	cfg.WeightMax = c.Profile.WeightMax
	return cfg
}

// WeatherClientOptions converts the config into HTTP client options.
func (c *Config) WeatherClientOptions() weather.ClientOptions {
	return weather.ClientOptions{
		BaseURL: c.Weather.BaseURL,
		APIKey:  c.Weather.APIKey,
		Timeout: time.Duration(c.Weather.TimeoutMs) * time.Millisecond,
	}
}

// WeatherResilience converts the config into circuit breaker settings.
func (c *Config) WeatherResilience() weather.ResilientConfig {
	cfg := weather.DefaultResilientConfig()
	cfg.RequestsPerMinute = c.Weather.RequestsPerMinute
	if c.Weather.FailureThreshold > 0 {
		cfg.FailureThreshold = uint32(c.Weather.FailureThreshold)
	}
	return cfg
}
