package testsupport

import (
	"context"
	"sync"

	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
)

// Fetch operation names reported by FakeSource.Calls.
const (
	OpFaculties   = "faculties"
	OpGroups      = "groups"
	OpSchedule    = "schedule"
	OpBells       = "bells"
	OpDepartments = "departments"
)

// FakeSource is a scripted, call-counting sources.DataSource. Anything not
// scripted answers with a source_unavailable error.
type FakeSource struct {
	name string

	mu          sync.Mutex
	faculties   result.Envelope[[]schedule.Faculty]
	groups      map[string]result.Envelope[[]schedule.Group]
	schedules   map[string]result.Envelope[schedule.GroupSchedule]
	bells       result.Envelope[[]schedule.BellSlot]
	departments result.Envelope[[]schedule.Department]
	calls       map[string]int
	gate        chan struct{}
	entered     chan struct{}
}

var _ sources.DataSource = (*FakeSource)(nil)

// NewFakeSource returns a fake reporting name.
func NewFakeSource(name string) *FakeSource {
	return &FakeSource{
		name:        name,
		faculties:   Unavailable[[]schedule.Faculty](),
		groups:      make(map[string]result.Envelope[[]schedule.Group]),
		schedules:   make(map[string]result.Envelope[schedule.GroupSchedule]),
		bells:       Unavailable[[]schedule.BellSlot](),
		departments: Unavailable[[]schedule.Department](),
		calls:       make(map[string]int),
	}
}

// Unavailable is the envelope a fake returns for unscripted calls.
func Unavailable[T any]() result.Envelope[T] {
	return result.Error[T]("fake: source unavailable", sources.CodeSourceUnavailable)
}

// Empty is the envelope of an upstream that answered with nothing.
func Empty[T any]() result.Envelope[T] {
	return result.Error[T]("fake: source returned no data", sources.CodeSourceEmpty)
}

// SetFaculties scripts FetchFaculties.
func (f *FakeSource) SetFaculties(env result.Envelope[[]schedule.Faculty]) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faculties = env
	return f
}

// SetGroups scripts FetchGroupsForFaculty for facultyCode.
func (f *FakeSource) SetGroups(facultyCode string, env result.Envelope[[]schedule.Group]) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[facultyCode] = env
	return f
}

// SetSchedule scripts FetchScheduleForGroup for groupCode.
func (f *FakeSource) SetSchedule(groupCode string, env result.Envelope[schedule.GroupSchedule]) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules[groupCode] = env
	return f
}

// SetBells scripts FetchBellSchedule.
func (f *FakeSource) SetBells(env result.Envelope[[]schedule.BellSlot]) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bells = env
	return f
}

// SetDepartments scripts FetchDepartments.
func (f *FakeSource) SetDepartments(env result.Envelope[[]schedule.Department]) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.departments = env
	return f
}

// Block makes FetchFaculties wait until the returned release func is called.
// The entered channel receives once per call that reaches the gate.
func (f *FakeSource) Block() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 64)
	gate := f.gate
	var once sync.Once
	return f.entered, func() { once.Do(func() { close(gate) }) }
}

// Calls returns how often op was invoked.
func (f *FakeSource) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of fetches of any kind.
func (f *FakeSource) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeSource) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

// Name returns the configured source name.
func (f *FakeSource) Name() string { return f.name }

// FetchFaculties returns the scripted faculties.
func (f *FakeSource) FetchFaculties(ctx context.Context) result.Envelope[[]schedule.Faculty] {
	f.record(OpFaculties)
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return Unavailable[[]schedule.Faculty]()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.faculties
}

// FetchGroupsForFaculty returns the scripted groups of facultyCode.
func (f *FakeSource) FetchGroupsForFaculty(_ context.Context, facultyCode string) result.Envelope[[]schedule.Group] {
	f.record(OpGroups)
	f.mu.Lock()
	defer f.mu.Unlock()
	if env, ok := f.groups[facultyCode]; ok {
		return env
	}
	return Unavailable[[]schedule.Group]()
}

// FetchScheduleForGroup returns the scripted schedule of groupCode. Day and
// parity are ignored.
func (f *FakeSource) FetchScheduleForGroup(_ context.Context, groupCode string, _ int, _ schedule.Parity) result.Envelope[schedule.GroupSchedule] {
	f.record(OpSchedule)
	f.mu.Lock()
	defer f.mu.Unlock()
	if env, ok := f.schedules[groupCode]; ok {
		return env
	}
	return Unavailable[schedule.GroupSchedule]()
}

// FetchBellSchedule returns the scripted bell schedule.
func (f *FakeSource) FetchBellSchedule(context.Context) result.Envelope[[]schedule.BellSlot] {
	f.record(OpBells)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bells
}

// FetchDepartments returns the scripted departments.
func (f *FakeSource) FetchDepartments(context.Context) result.Envelope[[]schedule.Department] {
	f.record(OpDepartments)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.departments
}
