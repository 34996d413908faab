// Package daemonrun hosts the timetabled process runtime: logger setup,
// startup preflight, engine and daemon construction, and signal handling.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"timetable/internal/config"
	"timetable/internal/daemon"
	"timetable/internal/engine"
	"timetable/internal/logging"
	"timetable/internal/preflight"
	"timetable/internal/telemetry"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SkipPreflight disables the startup readiness checks.
	SkipPreflight bool
}

// Run starts timetabled and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", cfg.DaemonLogPath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if !opts.SkipPreflight {
		logPreflight(signalCtx, logger, cfg)
	}

	e, err := engine.Open(cfg, logger, engine.WithMetrics(telemetry.New()))
	if err != nil {
		logger.Error("open engine", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, e, logger)
	if err != nil {
		_ = e.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and data directory permissions"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("timetabled shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `timetable doctor` for details"),
			logging.String(logging.FieldImpact, "syncs may fall back or fail; cached data is still served"),
		)
	}
	logger.Info("preflight complete",
		logging.String(logging.FieldEventType, "preflight_snapshot"),
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))),
	)
}
