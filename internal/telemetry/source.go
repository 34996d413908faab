package telemetry

import (
	"context"
	"time"

	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
)

// InstrumentSource wraps ds so every fetch is counted and timed. It returns
// ds unchanged when m is nil.
func InstrumentSource(ds sources.DataSource, m *Metrics) sources.DataSource {
	if m == nil || ds == nil {
		return ds
	}
	return &instrumented{next: ds, metrics: m}
}

type instrumented struct {
	next    sources.DataSource
	metrics *Metrics
}

func observe[T any](m *Metrics, source, operation string, fetch func() result.Envelope[T]) result.Envelope[T] {
	start := time.Now()
	env := fetch()
	m.ObserveFetch(source, operation, env.Code, time.Since(start))
	return env
}

func (s *instrumented) Name() string { return s.next.Name() }

func (s *instrumented) FetchFaculties(ctx context.Context) result.Envelope[[]schedule.Faculty] {
	return observe(s.metrics, s.Name(), "faculties", func() result.Envelope[[]schedule.Faculty] {
		return s.next.FetchFaculties(ctx)
	})
}

func (s *instrumented) FetchGroupsForFaculty(ctx context.Context, facultyCode string) result.Envelope[[]schedule.Group] {
	return observe(s.metrics, s.Name(), "groups", func() result.Envelope[[]schedule.Group] {
		return s.next.FetchGroupsForFaculty(ctx, facultyCode)
	})
}

func (s *instrumented) FetchScheduleForGroup(ctx context.Context, groupCode string, day int, parity schedule.Parity) result.Envelope[schedule.GroupSchedule] {
	return observe(s.metrics, s.Name(), "schedule", func() result.Envelope[schedule.GroupSchedule] {
		return s.next.FetchScheduleForGroup(ctx, groupCode, day, parity)
	})
}

func (s *instrumented) FetchBellSchedule(ctx context.Context) result.Envelope[[]schedule.BellSlot] {
	return observe(s.metrics, s.Name(), "bells", func() result.Envelope[[]schedule.BellSlot] {
		return s.next.FetchBellSchedule(ctx)
	})
}

func (s *instrumented) FetchDepartments(ctx context.Context) result.Envelope[[]schedule.Department] {
	return observe(s.metrics, s.Name(), "departments", func() result.Envelope[[]schedule.Department] {
		return s.next.FetchDepartments(ctx)
	})
}
