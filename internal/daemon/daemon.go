package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"timetable/internal/api"
	"timetable/internal/config"
	"timetable/internal/engine"
	"timetable/internal/logging"
	"timetable/internal/notifications"
)

// ErrAlreadyRunning is returned by Start when another process holds the lock.
var ErrAlreadyRunning = errors.New("another timetabled instance is already running")

// Daemon serves one engine and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	notifier      notifications.Service
	retryInterval time.Duration
	now           func() time.Time

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithRetryInterval sets how long the refresh loop waits after a failed
// scheduled pass before trying again.
func WithRetryInterval(d time.Duration) Option {
	return func(dm *Daemon) {
		if d > 0 {
			dm.retryInterval = d
		}
	}
}

// WithNotifier replaces the notifier built from the configuration.
func WithNotifier(n notifications.Service) Option {
	return func(dm *Daemon) {
		if n != nil {
			dm.notifier = n
		}
	}
}

// New constructs a daemon around an opened engine.
func New(cfg *config.Config, e *engine.Engine, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || e == nil {
		return nil, errors.New("daemon requires config and engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.DaemonLockPath()
	d := &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		engine:        e,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
		notifier:      notifications.NewService(cfg),
		retryInterval: 15 * time.Minute,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and launches the
// refresh loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.startedAt = d.now()
	d.running.Store(true)

	d.wg.Add(1)
	go d.refreshLoop(runCtx)

	d.logger.Info("timetabled started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop stops the refresh loop and API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("timetabled stopped")
}

// Close stops the daemon and closes the engine.
func (d *Daemon) Close() error {
	d.Stop()
	return d.engine.Close()
}

// APIAddress returns the address the API server listens on, or "" when the
// API is disabled or not started.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns process information for the status endpoint.
func (d *Daemon) Status() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		CacheDBPath:  d.engine.Store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
}
