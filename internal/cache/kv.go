package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timetable/internal/schedule"
)

const (
	keyLastSyncAt     = "last_sync_at"
	keyLastSyncSource = "last_sync_source"
	keyBellSchedule   = "bell_schedule"
	keyDepartments    = "departments"
	scheduleStampKey  = "schedule_synced:"
)

// Flag returns the value stored under key.
func (s *Store) Flag(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ensureContext(ctx), "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read flag %s: %w", key, err)
	}
	return value, true, nil
}

// SetFlag stores value under key.
func (s *Store) SetFlag(ctx context.Context, key, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return putKV(ctx, tx, key, value)
	})
}

func putKV(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value); err != nil {
		return fmt.Errorf("write flag %s: %w", key, err)
	}
	return nil
}

// SyncState returns the last successful sync time and source.
func (s *Store) SyncState(ctx context.Context) (schedule.SyncState, error) {
	var state schedule.SyncState
	raw, ok, err := s.Flag(ctx, keyLastSyncAt)
	if err != nil {
		return state, err
	}
	if ok {
		t, err := parseTime(raw)
		if err != nil {
			return state, err
		}
		state.LastSyncAt = &t
	}
	source, _, err := s.Flag(ctx, keyLastSyncSource)
	if err != nil {
		return state, err
	}
	state.LastSource = source
	return state, nil
}

// SetSyncState records a successful sync. Both keys change in one transaction.
func (s *Store) SetSyncState(ctx context.Context, at time.Time, source string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := putKV(ctx, tx, keyLastSyncAt, formatTime(at)); err != nil {
			return err
		}
		return putKV(ctx, tx, keyLastSyncSource, source)
	})
}

// ScheduleStamp returns when the lessons and exams of groupCode were last
// written, or nil if never.
func (s *Store) ScheduleStamp(ctx context.Context, groupCode string) (*time.Time, error) {
	raw, ok, err := s.Flag(ctx, scheduleStampKey+groupCode)
	if err != nil || !ok {
		return nil, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetScheduleStamp records that the schedule of groupCode was written at at.
func (s *Store) SetScheduleStamp(ctx context.Context, groupCode string, at time.Time) error {
	return s.SetFlag(ctx, scheduleStampKey+groupCode, formatTime(at))
}

// ReplaceBellSchedule stores the bell schedule document.
func (s *Store) ReplaceBellSchedule(ctx context.Context, slots []schedule.BellSlot) error {
	return s.putJSON(ctx, keyBellSchedule, slots)
}

// BellSchedule returns the cached bell schedule and whether one was stored.
func (s *Store) BellSchedule(ctx context.Context) ([]schedule.BellSlot, bool, error) {
	var slots []schedule.BellSlot
	ok, err := s.getJSON(ctx, keyBellSchedule, &slots)
	return slots, ok, err
}

// ReplaceDepartments stores the department list document.
func (s *Store) ReplaceDepartments(ctx context.Context, departments []schedule.Department) error {
	return s.putJSON(ctx, keyDepartments, departments)
}

// Departments returns the cached department list and whether one was stored.
func (s *Store) Departments(ctx context.Context) ([]schedule.Department, bool, error) {
	var departments []schedule.Department
	ok, err := s.getJSON(ctx, keyDepartments, &departments)
	return departments, ok, err
}

func (s *Store) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetFlag(ctx, key, string(data))
}

func (s *Store) getJSON(ctx context.Context, key string, target any) (bool, error) {
	raw, ok, err := s.Flag(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
