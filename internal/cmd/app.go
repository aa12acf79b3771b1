package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/runger/wardrobe/internal/config"
	outfitsdb "github.com/runger/wardrobe/internal/outfits/db"
	"github.com/runger/wardrobe/internal/outfits/engine"
	"github.com/runger/wardrobe/internal/outfits/feedback"
	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	wlog "github.com/runger/wardrobe/internal/outfits/log"
	"github.com/runger/wardrobe/internal/outfits/metrics"
	"github.com/runger/wardrobe/internal/outfits/profile"
	"github.com/runger/wardrobe/internal/weather"
)

// app holds the stores a command works with. Commands open it, use it and
// close it; nothing is shared between invocations.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *outfitsdb.DB
	items    *inventory.Store
	profiles *profile.Store
	history  *history.Logger
	ratings  *feedback.Store
	engine   *engine.Service
	forecast weather.Provider
}

// loadConfig reads the config file (with environment overrides) and
// applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagDebug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return wlog.New(&wlog.Config{Output: os.Stderr, Level: wlog.ParseLevel(cfg.Log.Level)})
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	d, err := outfitsdb.Open(ctx, outfitsdb.Options{
		Logger:      logger,
		Path:        cfg.DatabasePath(),
		LockTimeout: time.Duration(cfg.Store.LockTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		wlog.LogSQLiteError(logger, "open", err)
		return nil, fmt.Errorf("failed to open wardrobe database: %w", err)
	}
	version, err := d.Version(ctx)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	wlog.LogOpen(logger, wlog.OpenInfo{
		Version:       Version,
		ConfigPath:    config.DefaultPaths().ConfigFile(),
		DatabasePath:  d.Path(),
		SchemaVersion: version,
	})

	pcfg := cfg.ProfileSettings()
	pcfg.Logger = logger
	ecfg := cfg.EngineSettings()
	ecfg.Logger = logger

	profiles := profile.NewStore(d.DB(), pcfg)
	updater := profile.NewUpdater(profiles)
	hist := history.NewLogger(d.DB(), updater, history.Config{Logger: logger})
	items := inventory.NewStore(d.DB(), logger)
	ratings := feedback.NewStore(d.DB(), hist, updater, feedback.Config{Logger: logger})

	rcfg := cfg.WeatherResilience()
	rcfg.Logger = logger
	rcfg.Store = weather.NewSQLStore(d.DB(), nil)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       d,
		items:    items,
		profiles: profiles,
		history:  hist,
		ratings:  ratings,
		engine: engine.New(engine.Deps{
			Inventory: items,
			Profile:   profiles,
			History:   hist,
			Ratings:   ratings,
		}, ecfg),
		forecast: weather.NewResilient(weather.NewOpenWeatherClient(cfg.WeatherClientOptions()), rcfg),
	}, nil
}

func (a *app) Close() error {
	a.logger.Debug("engine metrics", "counters", metrics.Global.Snapshot(),
		"avg_suggest_ms", metrics.Global.AverageSuggestLatencyMs(), "hit_rate", metrics.Global.HitRate())
	return a.db.Close()
}

// withApp opens the stores, runs fn and closes them again.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// currentWeather asks the provider for city, or the configured city. On
// failure it returns the neutral default together with the error so the
// caller can warn and carry on.
func (a *app) currentWeather(ctx context.Context, city string) (weather.Report, error) {
	if city == "" {
		city = a.cfg.Weather.City
	}
	r, err := a.forecast.Current(ctx, city)
	if err != nil {
		wlog.LogWeatherFallback(a.logger, city, err)
		return weather.DefaultReport(city), err
	}
	return r, nil
}
