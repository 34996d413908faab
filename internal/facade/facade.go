// Package facade is the read side of the engine. Every accessor answers from
// the cache immediately and, when the data is stale or missing, starts a
// background sync whose result is delivered as a follow-up value.
//
// Stream accessors return a channel that yields:
//
//   - the cached snapshot, or Loading when the cache has nothing yet and a
//     sync was started;
//   - after a started sync completes, the re-read snapshot, or an error with
//     code "no_data" when the sync failed and there is still nothing cached.
//
// Channels are buffered and always closed, so a caller may stop after the
// first value. Background syncs run on a context detached from the caller,
// bounded only by the pass timeout.
package facade

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"timetable/internal/cache"
	"timetable/internal/logging"
	"timetable/internal/refresh"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/syncer"
)

// Envelope codes produced by the facade.
const (
	CodeNoData       = "no_data"
	CodeCacheFailure = "cache_failure"
)

const noDataMessage = "no data yet"

// Store is the read surface of the cache.
type Store interface {
	IsEmpty(ctx context.Context) (bool, error)
	Faculties(ctx context.Context) ([]schedule.Faculty, error)
	Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) ([]schedule.Group, error)
	Lessons(ctx context.Context, groupCode string, day int, parity schedule.Parity) ([]schedule.Lesson, error)
	Exams(ctx context.Context, groupCode string, kind schedule.ExamKind) ([]schedule.Exam, error)
	BellSchedule(ctx context.Context) ([]schedule.BellSlot, bool, error)
	Departments(ctx context.Context) ([]schedule.Department, bool, error)
	SyncState(ctx context.Context) (schedule.SyncState, error)
	ScheduleStamp(ctx context.Context, groupCode string) (*time.Time, error)
	Stats(ctx context.Context) (cache.Stats, error)
}

// Syncer runs sync passes.
type Syncer interface {
	Sync(ctx context.Context, req syncer.Request) result.Envelope[syncer.Outcome]
	Full() syncer.Request
	Phase() syncer.Phase
	LastOutcome() (syncer.Outcome, bool)
}

// Facade serves cached schedule data and keeps it fresh.
type Facade struct {
	store       Store
	syncer      Syncer
	scheduler   *refresh.Scheduler
	logger      *slog.Logger
	passTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the facade logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logging.NewComponentLogger(logger, "facade")
	}
}

// WithPassTimeout bounds background sync passes. Zero means no bound.
func WithPassTimeout(d time.Duration) Option {
	return func(f *Facade) {
		f.passTimeout = d
	}
}

// New builds a facade.
func New(store Store, s Syncer, scheduler *refresh.Scheduler, opts ...Option) *Facade {
	if scheduler == nil {
		scheduler = refresh.New(nil, nil)
	}
	f := &Facade{
		store:     store,
		syncer:    s,
		scheduler: scheduler,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Wait blocks until every background sync started so far has finished.
func (f *Facade) Wait() {
	f.wg.Wait()
}

// startSync runs req on a detached context and delivers its envelope on the
// returned channel, which never blocks the sender.
func (f *Facade) startSync(ctx context.Context, req syncer.Request) <-chan result.Envelope[syncer.Outcome] {
	done := make(chan result.Envelope[syncer.Outcome], 1)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		syncCtx := context.WithoutCancel(ctx)
		if f.passTimeout > 0 {
			var cancel context.CancelFunc
			syncCtx, cancel = context.WithTimeout(syncCtx, f.passTimeout)
			defer cancel()
		}
		env := f.syncer.Sync(syncCtx, req)
		if env.IsError() {
			f.logger.Debug("background sync failed", logging.String("code", env.Code), logging.String("reason", env.Message))
		}
		done <- env
	}()
	return done
}

// plan decides whether a read should trigger a sync and with which request.
type plan struct {
	due bool
	req syncer.Request
}

// stream implements the two-value read-through protocol shared by the
// stream accessors.
func stream[T any](ctx context.Context, f *Facade, read func(context.Context) (T, error), empty func(T) bool, decide func(context.Context) (plan, error)) <-chan result.Envelope[T] {
	out := make(chan result.Envelope[T], 2)
	go func() {
		defer close(out)
		cached, err := read(ctx)
		if err != nil {
			out <- cacheFailure[T](err)
			return
		}
		p, err := decide(ctx)
		if err != nil {
			f.logger.Warn("refresh check failed", logging.Error(err))
		}
		if !p.due {
			out <- result.Success(cached)
			return
		}
		if empty(cached) {
			out <- result.Loading[T]()
		} else {
			out <- result.Success(cached)
		}

		syncEnv := <-f.startSync(ctx, p.req)
		fresh, err := read(context.WithoutCancel(ctx))
		if err != nil {
			out <- cacheFailure[T](err)
			return
		}
		if empty(fresh) && syncEnv.IsError() {
			out <- result.Error[T](noDataMessage, CodeNoData)
			return
		}
		out <- result.Success(fresh)
	}()
	return out
}

func cacheFailure[T any](err error) result.Envelope[T] {
	return result.Error[T]("cache read failed: "+err.Error(), CodeCacheFailure)
}

func isEmpty[T any](items []T) bool {
	return len(items) == 0
}
