// Package engine assembles the cache store, the upstream sources, the sync
// orchestrator, and the facade from one configuration. The daemon and the
// CLI's local mode both run the engine built here.
package engine

import (
	"fmt"
	"log/slog"

	"timetable/internal/cache"
	"timetable/internal/config"
	"timetable/internal/facade"
	"timetable/internal/logging"
	"timetable/internal/refresh"
	"timetable/internal/sources"
	"timetable/internal/sources/fallback"
	"timetable/internal/sources/primary"
	"timetable/internal/syncer"
	"timetable/internal/telemetry"
)

// Engine owns the components of one running cache engine.
type Engine struct {
	Store     *cache.Store
	Syncer    *syncer.Orchestrator
	Scheduler *refresh.Scheduler
	Facade    *facade.Facade
	Metrics   *telemetry.Metrics
}

type options struct {
	metrics  *telemetry.Metrics
	primary  sources.DataSource
	fallback sources.DataSource
	override bool
}

// Option customizes Open.
type Option func(*options)

// WithMetrics records sync and fetch metrics into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSources replaces the configured upstreams. Either may be nil.
func WithSources(primary, fallback sources.DataSource) Option {
	return func(o *options) {
		o.primary = primary
		o.fallback = fallback
		o.override = true
	}
}

// Open opens the cache database and wires the engine for cfg.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	primarySource, fallbackSource := o.primary, o.fallback
	if !o.override {
		var err error
		if primarySource, fallbackSource, err = Sources(cfg, logger); err != nil {
			return nil, err
		}
	}

	store, err := cache.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	scheduler := refresh.New(nil, cfg.Location())
	orch := syncer.New(store,
		telemetry.InstrumentSource(primarySource, o.metrics),
		telemetry.InstrumentSource(fallbackSource, o.metrics),
		syncer.WithLogger(logger),
		syncer.WithMetrics(o.metrics),
		syncer.WithTrackedGroups(cfg.Sync.TrackedGroups),
	)
	f := facade.New(store, orch, scheduler,
		facade.WithLogger(logger),
		facade.WithPassTimeout(cfg.PassTimeout()),
	)
	return &Engine{
		Store:     store,
		Syncer:    orch,
		Scheduler: scheduler,
		Facade:    f,
		Metrics:   o.metrics,
	}, nil
}

// Sources builds the enabled upstream clients. A disabled source is nil.
func Sources(cfg *config.Config, logger *slog.Logger) (sources.DataSource, sources.DataSource, error) {
	var primarySource, fallbackSource sources.DataSource
	if cfg.Primary.Enabled {
		client, err := primary.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("primary source: %w", err)
		}
		primarySource = client
	}
	if cfg.Fallback.Enabled {
		client, err := fallback.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback source: %w", err)
		}
		fallbackSource = client
	}
	return primarySource, fallbackSource, nil
}

// Close waits for background syncs and closes the cache database.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.Facade != nil {
		e.Facade.Wait()
	}
	return e.Store.Close()
}
