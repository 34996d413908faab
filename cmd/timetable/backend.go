package main

import (
	"context"

	"timetable/internal/api"
	"timetable/internal/config"
	"timetable/internal/engine"
	"timetable/internal/facade"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/textutil"
)

// backend answers schedule queries with the final envelope of each read.
type backend interface {
	Mode() string
	Faculties(ctx context.Context) (result.Envelope[[]schedule.Faculty], error)
	Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) (result.Envelope[[]schedule.Group], error)
	DaySchedule(ctx context.Context, groupCode string, day int, parity schedule.Parity, refresh bool) (result.Envelope[[]schedule.Lesson], error)
	Exams(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error)
	Tests(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error)
	BellSchedule(ctx context.Context) (result.Envelope[[]schedule.BellSlot], error)
	Departments(ctx context.Context) (result.Envelope[[]schedule.Department], error)
	Sync(ctx context.Context) (api.SyncResponse, error)
	Status(ctx context.Context) (api.StatusResponse, error)
	Close() error
}

type remoteBackend struct {
	*api.Client
}

func (remoteBackend) Mode() string { return "daemon" }

func (remoteBackend) Close() error { return nil }

// localBackend runs the engine in-process. Reads wait for any sync they
// start so a one-shot command always prints settled data.
type localBackend struct {
	cfg    *config.Config
	engine *engine.Engine
}

func (b *localBackend) Mode() string { return "local" }

func (b *localBackend) Faculties(ctx context.Context) (result.Envelope[[]schedule.Faculty], error) {
	return drain(b.engine.Facade.Faculties(ctx)), nil
}

func (b *localBackend) Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) (result.Envelope[[]schedule.Group], error) {
	return drain(b.engine.Facade.Groups(ctx, facultyCode, form, course)), nil
}

func (b *localBackend) DaySchedule(ctx context.Context, groupCode string, day int, parity schedule.Parity, refresh bool) (result.Envelope[[]schedule.Lesson], error) {
	return drain(b.engine.Facade.DaySchedule(ctx, groupCode, day, parity, refresh)), nil
}

func (b *localBackend) Exams(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error) {
	return b.examsOfKind(ctx, groupCode, schedule.KindExam, b.engine.Facade.Exams(ctx, groupCode)), nil
}

func (b *localBackend) Tests(ctx context.Context, groupCode string) (result.Envelope[[]schedule.Exam], error) {
	return b.examsOfKind(ctx, groupCode, schedule.KindTest, b.engine.Facade.Tests(ctx, groupCode)), nil
}

func (b *localBackend) examsOfKind(ctx context.Context, groupCode string, kind schedule.ExamKind, env result.Envelope[[]schedule.Exam]) result.Envelope[[]schedule.Exam] {
	code := textutil.NormalizeCode(groupCode)
	return settle(b.engine.Facade, env, func() ([]schedule.Exam, bool, error) {
		exams, err := b.engine.Store.Exams(ctx, code, kind)
		if err != nil {
			return nil, false, err
		}
		stamp, err := b.engine.Store.ScheduleStamp(ctx, code)
		if err != nil {
			return nil, false, err
		}
		return exams, stamp != nil || len(exams) > 0, nil
	})
}

func (b *localBackend) BellSchedule(ctx context.Context) (result.Envelope[[]schedule.BellSlot], error) {
	env := b.engine.Facade.BellSchedule(ctx)
	return settle(b.engine.Facade, env, func() ([]schedule.BellSlot, bool, error) {
		return b.engine.Store.BellSchedule(ctx)
	}), nil
}

func (b *localBackend) Departments(ctx context.Context) (result.Envelope[[]schedule.Department], error) {
	env := b.engine.Facade.Departments(ctx)
	return settle(b.engine.Facade, env, func() ([]schedule.Department, bool, error) {
		return b.engine.Store.Departments(ctx)
	}), nil
}

func (b *localBackend) Sync(ctx context.Context) (api.SyncResponse, error) {
	return b.engine.Facade.ForceRefresh(ctx), nil
}

func (b *localBackend) Status(ctx context.Context) (api.StatusResponse, error) {
	return api.StatusResponse{
		Daemon: api.DaemonStatus{
			CacheDBPath:  b.cfg.CacheDBPath(),
			LockFilePath: b.cfg.DaemonLockPath(),
		},
		Sync: b.engine.Facade.Status(ctx),
	}, nil
}

func (b *localBackend) Close() error {
	return b.engine.Close()
}

func drain[T any](ch <-chan result.Envelope[T]) result.Envelope[T] {
	var final result.Envelope[T]
	for env := range ch {
		final = env
	}
	return final
}

// settle waits out a Loading envelope and re-reads the cache once the
// background sync has finished.
func settle[T any](f *facade.Facade, env result.Envelope[T], reread func() (T, bool, error)) result.Envelope[T] {
	if !env.IsLoading() {
		return env
	}
	f.Wait()
	value, ok, err := reread()
	if err != nil {
		return result.Error[T]("cache read failed: "+err.Error(), facade.CodeCacheFailure)
	}
	if !ok {
		return result.Error[T]("no data yet", facade.CodeNoData)
	}
	return result.Success(value)
}
