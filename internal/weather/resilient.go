package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ResilientConfig configures a Resilient provider.
type ResilientConfig struct {
	// Logger for diagnostic output (optional).
	Logger *slog.Logger

	// RequestsPerMinute limits upstream calls. Over the limit the cached
	// report is served.
	RequestsPerMinute int

	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold uint32

	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration

	// CacheSize is the number of cities whose last good report is kept
	// in memory.
	CacheSize int

	// Store persists the last good report so later runs can serve it
	// (optional).
	Store ReportStore

	// MaxStale is the oldest persisted report still served as a fallback.
	MaxStale time.Duration

	// Now is the clock used to age persisted reports (default: time.Now).
	Now func() time.Time
}

// DefaultResilientConfig returns conservative defaults for the free API tier.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		RequestsPerMinute: 30,
		FailureThreshold:  3,
		OpenTimeout:       time.Minute,
		CacheSize:         16,
		MaxStale:          24 * time.Hour,
	}
}

// Resilient wraps a Provider with a circuit breaker, a rate limiter and a
// per-city cache of the last good report. Failed calls are not retried.
type Resilient struct {
	next    Provider
	cb      *gobreaker.CircuitBreaker[Report]
	limiter *rate.Limiter
	cache    *lru[string, Report]
	store    ReportStore
	maxStale time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewResilient wraps next.
func NewResilient(next Provider, cfg ResilientConfig) *Resilient {
	def := DefaultResilientConfig()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.MaxStale <= 0 {
		cfg.MaxStale = def.MaxStale
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger
	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[Report](gobreaker.Settings{
		Name:        "weather-api",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// An unknown city or a missing key says nothing about upstream health.
			return err == nil || errors.Is(err, ErrCityNotFound) || errors.Is(err, ErrNoAPIKey)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Resilient{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute),
		cache:    newLRU[string, Report](cfg.CacheSize),
		store:    cfg.Store,
		maxStale: cfg.MaxStale,
		now:      cfg.Now,
		logger:   logger,
	}
}

// Current returns a fresh report when possible and the last good report
// for the city (Stale set) otherwise. With neither it returns an error
// wrapping ErrUnavailable.
func (r *Resilient) Current(ctx context.Context, city string) (Report, error) {
	key := strings.ToLower(strings.TrimSpace(city))

	if !r.limiter.Allow() {
		return r.fallback(ctx, key, errors.New("rate limited"))
	}

	rep, err := r.cb.Execute(func() (Report, error) {
		return r.next.Current(ctx, city)
	})
	if err != nil {
		if errors.Is(err, ErrCityNotFound) || errors.Is(err, ErrNoAPIKey) {
			return Report{}, err
		}
		return r.fallback(ctx, key, err)
	}

	r.cache.Put(key, rep)
	if r.store != nil {
		if err := r.store.SaveReport(ctx, key, rep); err != nil {
			r.logger.Warn("failed to persist weather", "city", key, "error", err)
		}
	}
	return rep, nil
}

func (r *Resilient) fallback(ctx context.Context, key string, cause error) (Report, error) {
	cached, ok := r.cache.Get(key)
	if !ok {
		cached, ok = r.loadPersisted(ctx, key)
	}
	if ok {
		r.logger.Warn("serving cached weather", "city", key, "error", cause)
		cached.Stale = true
		return cached, nil
	}
	return Report{}, fmt.Errorf("%w: %w", ErrUnavailable, cause)
}

// loadPersisted reads a report saved by an earlier run, skipping ones
// older than maxStale.
func (r *Resilient) loadPersisted(ctx context.Context, key string) (Report, bool) {
	if r.store == nil {
		return Report{}, false
	}
	rep, fetchedAt, ok, err := r.store.LoadReport(ctx, key)
	if err != nil {
		r.logger.Warn("failed to read persisted weather", "city", key, "error", err)
		return Report{}, false
	}
	if !ok || r.now().Sub(fetchedAt) > r.maxStale {
		return Report{}, false
	}
	r.cache.Put(key, rep)
	return rep, true
}

// State reports the circuit breaker state.
func (r *Resilient) State() string {
	return r.cb.State().String()
}
