package daemon

import (
	"context"
	"time"

	"timetable/internal/logging"
)

// refreshLoop runs a full pass whenever the weekly anchor has passed since
// the last successful sync, then sleeps until the next anchor. A failed pass
// is retried after the retry interval. The notifier hears about the first
// failure of a streak and about the pass that ends it.
func (d *Daemon) refreshLoop(ctx context.Context) {
	defer d.wg.Done()
	f := d.engine.Facade
	var failingSince time.Time
	for {
		wait := d.untilNextAnchor()
		status, ok := f.Status(ctx).Get()
		if ok && status.RefreshDue {
			env := f.ForceRefresh(ctx)
			switch {
			case env.IsSuccess():
				outcome, _ := env.Get()
				d.logger.Info("scheduled refresh finished",
					logging.String(logging.FieldSource, outcome.Source),
					logging.Int("written", len(outcome.Written)),
				)
				if !failingSince.IsZero() {
					d.notify(ctx, "recovered", func(ctx context.Context) error {
						return d.notifier.NotifySyncRecovered(ctx, outcome.Source, d.now().Sub(failingSince))
					})
					failingSince = time.Time{}
				}
			case env.IsError():
				logging.WarnWithContext(d.logger, "scheduled refresh failed", "scheduled_refresh_failed",
					logging.String("code", env.Code),
					logging.String("reason", env.Message),
					logging.Duration("retry_in", d.retryInterval),
					logging.String(logging.FieldImpact, "readers are served the cached snapshot"),
				)
				wait = min(wait, d.retryInterval)
				if failingSince.IsZero() {
					failingSince = d.now()
					d.notify(ctx, "failed", func(ctx context.Context) error {
						return d.notifier.NotifySyncFailed(ctx, env.Code, env.Message, d.retryInterval)
					})
				}
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (d *Daemon) notify(ctx context.Context, event string, send func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	if err := send(ctx); err != nil {
		d.logger.Warn("sync notification failed",
			logging.String("event", event),
			logging.Error(err),
		)
	}
}

func (d *Daemon) untilNextAnchor() time.Duration {
	next := d.engine.Scheduler.NextRefreshTime()
	wait := next.Sub(d.now())
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
