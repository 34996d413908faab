// Package refresh decides when the cached schedule is stale.
//
// Staleness is anchored to the calendar, not to elapsed time: the anchor is
// the latest Saturday 00:01 local time not after now, and a refresh is due
// when the last successful sync happened before it. However often the cache
// is read, the upstreams are contacted at most once per logical week unless a
// previous attempt failed to write anything.
package refresh

import (
	"time"

	"timetable/internal/schedule"
)

const (
	anchorWeekday = time.Saturday
	anchorHour    = 0
	anchorMinute  = 1
)

// Scheduler evaluates the weekly anchor against an injected clock.
type Scheduler struct {
	now func() time.Time
	loc *time.Location
}

// New builds a scheduler. A nil clock uses time.Now and a nil location uses
// time.Local.
func New(now func() time.Time, loc *time.Location) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{now: now, loc: loc}
}

// Anchor returns the latest Saturday 00:01 local time that is <= now.
func (s *Scheduler) Anchor() time.Time {
	return AnchorAt(s.now(), s.loc)
}

// ShouldRefresh reports whether a sync is due given the last successful sync.
func (s *Scheduler) ShouldRefresh(last *time.Time) bool {
	if last == nil || last.IsZero() {
		return true
	}
	return last.Before(s.Anchor())
}

// Due is ShouldRefresh applied to a persisted sync state.
func (s *Scheduler) Due(state schedule.SyncState) bool {
	return s.ShouldRefresh(state.LastSyncAt)
}

// NextRefreshTime returns the next Saturday 00:01 strictly after now.
func (s *Scheduler) NextRefreshTime() time.Time {
	return NextAnchorAfter(s.now(), s.loc)
}

// AnchorAt computes the latest anchor instant <= now in loc.
func AnchorAt(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	back := (int(local.Weekday()) - int(anchorWeekday) + 7) % 7
	anchor := time.Date(local.Year(), local.Month(), local.Day()-back, anchorHour, anchorMinute, 0, 0, loc)
	if anchor.After(local) {
		anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day()-7, anchorHour, anchorMinute, 0, 0, loc)
	}
	return anchor
}

// NextAnchorAfter computes the first anchor instant strictly after now in loc.
func NextAnchorAfter(now time.Time, loc *time.Location) time.Time {
	anchor := AnchorAt(now, loc)
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day()+7, anchorHour, anchorMinute, 0, 0, loc)
}
