package cache

import (
	"context"
	"database/sql"
	"fmt"

	"timetable/internal/schedule"
)

// Stats counts the rows of each entity collection.
type Stats struct {
	Faculties int `json:"faculties"`
	Groups    int `json:"groups"`
	Lessons   int `json:"lessons"`
	Exams     int `json:"exams"`
}

// Snapshot is a complete, deterministically ordered dump of the cache.
type Snapshot struct {
	Faculties []schedule.Faculty
	Groups    []schedule.Group
	Lessons   []schedule.Lesson
	Exams     []schedule.Exam
	KV        map[string]string
}

// IsEmpty reports whether no faculty has been cached yet.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM faculties").Scan(&count); err != nil {
		return false, fmt.Errorf("count faculties: %w", err)
	}
	return count == 0, nil
}

// Stats returns row counts for every entity collection.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	counts := []struct {
		table  string
		target *int
	}{
		{"faculties", &stats.Faculties},
		{"student_groups", &stats.Groups},
		{"lessons", &stats.Lessons},
		{"exams", &stats.Exams},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+c.table).Scan(c.target); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

// Snapshot reads the entire cache inside one read transaction so the result
// reflects a single committed state.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx = ensureContext(ctx)
	// A read-only transaction is a deferred BEGIN, so it does not queue
	// behind writers.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var snap Snapshot
	rows, err := snapshotRows(ctx, tx, "faculties", facultyColumns, "code")
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Faculties, err = scanFacultyRows(rows); err != nil {
		return Snapshot{}, err
	}
	if rows, err = snapshotRows(ctx, tx, "student_groups", groupColumns, "faculty_code, code"); err != nil {
		return Snapshot{}, err
	}
	if snap.Groups, err = scanGroupRows(rows); err != nil {
		return Snapshot{}, err
	}
	if rows, err = snapshotRows(ctx, tx, "lessons", lessonColumns, "group_code, day, pair, parity"); err != nil {
		return Snapshot{}, err
	}
	if snap.Lessons, err = scanLessonRows(rows); err != nil {
		return Snapshot{}, err
	}
	if rows, err = snapshotRows(ctx, tx, "exams", examColumns, "group_code, id"); err != nil {
		return Snapshot{}, err
	}
	if snap.Exams, err = scanExamRows(rows); err != nil {
		return Snapshot{}, err
	}

	kvRows, err := tx.QueryContext(ctx, "SELECT key, value FROM kv ORDER BY key")
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot kv: %w", err)
	}
	defer kvRows.Close()
	snap.KV = make(map[string]string)
	for kvRows.Next() {
		var key, value string
		if err := kvRows.Scan(&key, &value); err != nil {
			return Snapshot{}, fmt.Errorf("scan kv: %w", err)
		}
		snap.KV[key] = value
	}
	return snap, kvRows.Err()
}

// Reset deletes every cached record and the sync state.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"lessons", "exams", "student_groups", "faculties", "kv"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// CheckIntegrity runs SQLite's quick integrity check.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ensureContext(ctx), "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check: %s", result)
	}
	return nil
}

func snapshotRows(ctx context.Context, tx *sql.Tx, table, columns, order string) (*sql.Rows, error) {
	rows, err := tx.QueryContext(ctx, "SELECT "+columns+" FROM "+table+" ORDER BY "+order)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", table, err)
	}
	return rows, nil
}
