package sources

import (
	"context"

	"timetable/internal/result"
	"timetable/internal/schedule"
)

// Source names recorded in sync state and logs.
const (
	NamePrimary  = "primary"
	NameFallback = "fallback"
)

// DataSource is one upstream provider of schedule data. Implementations must
// be safe for concurrent use and must report every failure as an error
// envelope.
type DataSource interface {
	Name() string
	FetchFaculties(ctx context.Context) result.Envelope[[]schedule.Faculty]
	FetchGroupsForFaculty(ctx context.Context, facultyCode string) result.Envelope[[]schedule.Group]
	// FetchScheduleForGroup returns lessons for the given day (0 = whole week)
	// and parity ("" = every parity) together with the group's exams.
	FetchScheduleForGroup(ctx context.Context, groupCode string, day int, parity schedule.Parity) result.Envelope[schedule.GroupSchedule]
	FetchBellSchedule(ctx context.Context) result.Envelope[[]schedule.BellSlot]
	FetchDepartments(ctx context.Context) result.Envelope[[]schedule.Department]
}
