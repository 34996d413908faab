package facade

import (
	"context"
	"time"

	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/syncer"
	"timetable/internal/textutil"
)

// catalogPlan schedules a full pass when the cache is empty or the last
// sync predates the weekly anchor.
func (f *Facade) catalogPlan(ctx context.Context) (plan, error) {
	due, err := f.catalogDue(ctx)
	if err != nil || !due {
		return plan{}, err
	}
	return plan{due: true, req: f.syncer.Full()}, nil
}

func (f *Facade) catalogDue(ctx context.Context) (bool, error) {
	empty, err := f.store.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	if empty {
		return true, nil
	}
	state, err := f.store.SyncState(ctx)
	if err != nil {
		return false, err
	}
	return f.scheduler.Due(state), nil
}

// Faculties streams the faculty catalog.
func (f *Facade) Faculties(ctx context.Context) <-chan result.Envelope[[]schedule.Faculty] {
	return stream(ctx, f, f.store.Faculties, isEmpty[schedule.Faculty], f.catalogPlan)
}

// Groups streams the groups of a faculty. An empty faculty or form and a
// zero course disable that filter; groups with an unresolved course match
// any course.
func (f *Facade) Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) <-chan result.Envelope[[]schedule.Group] {
	read := func(ctx context.Context) ([]schedule.Group, error) {
		return f.store.Groups(ctx, facultyCode, form, course)
	}
	return stream(ctx, f, read, isEmpty[schedule.Group], f.catalogPlan)
}

// DaySchedule streams a group's lessons for day (0 = whole week) and parity
// (empty = every parity). A group never synced before, a stale one, or
// forceRefresh fetches the group's whole week so later days are served
// from the cache. A stale catalog is refreshed in the same pass.
func (f *Facade) DaySchedule(ctx context.Context, groupCode string, day int, parity schedule.Parity, forceRefresh bool) <-chan result.Envelope[[]schedule.Lesson] {
	groupCode = textutil.NormalizeCode(groupCode)
	read := func(ctx context.Context) ([]schedule.Lesson, error) {
		return f.store.Lessons(ctx, groupCode, day, parity)
	}
	decide := func(ctx context.Context) (plan, error) {
		p, err := f.groupPlan(ctx, groupCode)
		if forceRefresh && !p.due {
			p = plan{due: true, req: syncer.Request{Groups: []string{groupCode}}}
		}
		return p, err
	}
	return stream(ctx, f, read, isEmpty[schedule.Lesson], decide)
}

func (f *Facade) groupPlan(ctx context.Context, groupCode string) (plan, error) {
	stamp, err := f.store.ScheduleStamp(ctx, groupCode)
	if err != nil {
		return plan{}, err
	}
	catalogDue, err := f.catalogDue(ctx)
	if err != nil {
		return plan{}, err
	}
	switch {
	case catalogDue:
		req := f.syncer.Full()
		req.Groups = append(req.Groups, groupCode)
		return plan{due: true, req: req}, nil
	case f.scheduler.ShouldRefresh(stamp):
		return plan{due: true, req: syncer.Request{Groups: []string{groupCode}}}, nil
	default:
		return plan{}, nil
	}
}

// Exams returns the cached exams of a group.
func (f *Facade) Exams(ctx context.Context, groupCode string) result.Envelope[[]schedule.Exam] {
	return f.examsOfKind(ctx, groupCode, schedule.KindExam)
}

// Tests returns the cached pass/fail tests of a group.
func (f *Facade) Tests(ctx context.Context, groupCode string) result.Envelope[[]schedule.Exam] {
	return f.examsOfKind(ctx, groupCode, schedule.KindTest)
}

func (f *Facade) examsOfKind(ctx context.Context, groupCode string, kind schedule.ExamKind) result.Envelope[[]schedule.Exam] {
	groupCode = textutil.NormalizeCode(groupCode)
	exams, err := f.store.Exams(ctx, groupCode, kind)
	if err != nil {
		return cacheFailure[[]schedule.Exam](err)
	}
	stamp, err := f.store.ScheduleStamp(ctx, groupCode)
	if err != nil {
		return cacheFailure[[]schedule.Exam](err)
	}
	p, err := f.groupPlan(ctx, groupCode)
	if err != nil {
		return cacheFailure[[]schedule.Exam](err)
	}
	if !p.due {
		return result.Success(exams)
	}
	f.startSync(ctx, p.req)
	if stamp == nil && len(exams) == 0 {
		return result.Loading[[]schedule.Exam]()
	}
	return result.Success(exams)
}

// BellSchedule returns the cached bell schedule.
func (f *Facade) BellSchedule(ctx context.Context) result.Envelope[[]schedule.BellSlot] {
	return document(ctx, f, f.store.BellSchedule)
}

// Departments returns the cached department list.
func (f *Facade) Departments(ctx context.Context) result.Envelope[[]schedule.Department] {
	return document(ctx, f, f.store.Departments)
}

// document serves a reference document: the cached copy when present,
// Loading while the first copy is being fetched.
func document[T any](ctx context.Context, f *Facade, read func(context.Context) (T, bool, error)) result.Envelope[T] {
	value, ok, err := read(ctx)
	if err != nil {
		return cacheFailure[T](err)
	}
	due, err := f.catalogDue(ctx)
	if err != nil {
		return cacheFailure[T](err)
	}
	switch {
	case due:
		f.startSync(ctx, f.syncer.Full())
	case !ok:
		f.startSync(ctx, syncer.Request{IncludeReference: true})
	}
	if !ok {
		return result.Loading[T]()
	}
	return result.Success(value)
}

// ForceRefresh runs a full pass now and waits for it. The pass keeps running
// if ctx ends first, in which case Loading is returned.
func (f *Facade) ForceRefresh(ctx context.Context) result.Envelope[syncer.Outcome] {
	done := f.startSync(ctx, f.syncer.Full())
	select {
	case env := <-done:
		return env
	case <-ctx.Done():
		return result.Loading[syncer.Outcome]()
	}
}

// Status is the engine's non-blocking status indicator.
type Status struct {
	LastSyncAt  *time.Time      `json:"last_sync_at,omitempty"`
	LastSource  string          `json:"last_source,omitempty"`
	RefreshDue  bool            `json:"refresh_due"`
	NextRefresh time.Time       `json:"next_refresh"`
	Phase       syncer.Phase    `json:"phase"`
	LastOutcome *syncer.Outcome `json:"last_outcome,omitempty"`
	CacheEmpty  bool            `json:"cache_empty"`
	Faculties   int             `json:"faculties"`
	Groups      int             `json:"groups"`
	Lessons     int             `json:"lessons"`
	Exams       int             `json:"exams"`
}

// Status reports sync state and cache size without touching the network.
func (f *Facade) Status(ctx context.Context) result.Envelope[Status] {
	state, err := f.store.SyncState(ctx)
	if err != nil {
		return cacheFailure[Status](err)
	}
	stats, err := f.store.Stats(ctx)
	if err != nil {
		return cacheFailure[Status](err)
	}
	status := Status{
		LastSyncAt:  state.LastSyncAt,
		LastSource:  state.LastSource,
		RefreshDue:  f.scheduler.Due(state) || stats.Faculties == 0,
		NextRefresh: f.scheduler.NextRefreshTime(),
		Phase:       f.syncer.Phase(),
		CacheEmpty:  stats.Faculties == 0,
		Faculties:   stats.Faculties,
		Groups:      stats.Groups,
		Lessons:     stats.Lessons,
		Exams:       stats.Exams,
	}
	if last, ok := f.syncer.LastOutcome(); ok {
		status.LastOutcome = &last
	}
	return result.Success(status)
}
