package refresh_test

import (
	"testing"
	"time"

	"timetable/internal/refresh"
	"timetable/internal/schedule"
	"timetable/internal/testsupport"
)

// 2026-10-17 is a Saturday.
func at(t *testing.T, loc *time.Location, day, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, time.October, day, hour, minute, 0, 0, loc)
}

func TestShouldRefreshWeeklyAnchor(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		last *time.Time
		want bool
	}{
		{
			name: "never synced",
			now:  at(t, loc, 20, 12, 0),
			last: nil,
			want: true,
		},
		{
			name: "tuesday after sync on prior thursday",
			now:  at(t, loc, 20, 12, 0),
			last: ptr(at(t, loc, 15, 18, 0)),
			want: true,
		},
		{
			name: "monday after sync on saturday 00:05",
			now:  at(t, loc, 19, 9, 0),
			last: ptr(at(t, loc, 17, 0, 5)),
			want: false,
		},
		{
			name: "saturday before 00:01 uses previous anchor",
			now:  at(t, loc, 17, 0, 0),
			last: ptr(at(t, loc, 16, 23, 0)),
			want: false,
		},
		{
			name: "saturday at 00:01 exactly starts a new week",
			now:  at(t, loc, 17, 0, 1),
			last: ptr(at(t, loc, 16, 23, 0)),
			want: true,
		},
		{
			name: "sync exactly at anchor is fresh",
			now:  at(t, loc, 18, 10, 0),
			last: ptr(at(t, loc, 17, 0, 1)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testsupport.NewClock(tt.now)
			s := refresh.New(clock.NowFunc(), loc)
			if got := s.ShouldRefresh(tt.last); got != tt.want {
				t.Fatalf("ShouldRefresh() = %v, want %v (anchor %s)", got, tt.want, s.Anchor())
			}
		})
	}
}

func TestAnchorAndNextRefresh(t *testing.T) {
	loc := time.UTC
	clock := testsupport.NewClock(at(t, loc, 21, 8, 30))
	s := refresh.New(clock.NowFunc(), loc)

	if got, want := s.Anchor(), at(t, loc, 17, 0, 1); !got.Equal(want) {
		t.Fatalf("Anchor() = %s, want %s", got, want)
	}
	if got, want := s.NextRefreshTime(), at(t, loc, 24, 0, 1); !got.Equal(want) {
		t.Fatalf("NextRefreshTime() = %s, want %s", got, want)
	}

	clock.Set(at(t, loc, 24, 0, 1))
	if got, want := s.NextRefreshTime(), at(t, loc, 31, 0, 1); !got.Equal(want) {
		t.Fatalf("NextRefreshTime() at anchor = %s, want %s", got, want)
	}
}

func TestAnchorUsesLocalZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// Friday 22:00 UTC is Saturday 01:00 at UTC+3, past the anchor.
	now := time.Date(2026, time.October, 16, 22, 0, 0, 0, time.UTC)
	s := refresh.New(func() time.Time { return now }, loc)

	want := time.Date(2026, time.October, 17, 0, 1, 0, 0, loc)
	if got := s.Anchor(); !got.Equal(want) {
		t.Fatalf("Anchor() = %s, want %s", got, want)
	}
	last := time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)
	if !s.ShouldRefresh(&last) {
		t.Fatal("sync before the local anchor must be stale")
	}
}

func TestDueAdvancesWithClock(t *testing.T) {
	clock := testsupport.NewClock(at(t, time.UTC, 18, 12, 0))
	s := refresh.New(clock.NowFunc(), time.UTC)
	synced := clock.Now()
	state := schedule.SyncState{LastSyncAt: &synced, LastSource: "primary"}

	if s.Due(state) {
		t.Fatal("fresh state reported due")
	}
	clock.Advance(6 * 24 * time.Hour)
	if !s.Due(state) {
		t.Fatal("state from last week must be due after the next anchor")
	}
}

func ptr(t time.Time) *time.Time { return &t }
