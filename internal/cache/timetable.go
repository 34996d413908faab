package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"timetable/internal/schedule"
)

// parityScope lists the stored parities a lesson query or replacement covers.
// An odd or even week also sees the lessons held every week.
func parityScope(parity schedule.Parity) []string {
	switch parity {
	case schedule.Odd:
		return []string{string(schedule.Odd), string(schedule.Both)}
	case schedule.Even:
		return []string{string(schedule.Even), string(schedule.Both)}
	case schedule.Both:
		return []string{string(schedule.Both)}
	default:
		return nil
	}
}

func lessonScope(groupCode string, day int, parity schedule.Parity) (string, []any) {
	clause := "group_code = ?"
	args := []any{groupCode}
	if day > 0 {
		clause += " AND day = ?"
		args = append(args, day)
	}
	if scope := parityScope(parity); len(scope) > 0 {
		clause += " AND parity IN (" + placeholders(len(scope)) + ")"
		for _, p := range scope {
			args = append(args, p)
		}
	}
	return clause, args
}

// ReplaceLessons replaces the lessons of groupCode within the given day and
// parity scope. day 0 covers the whole week and an empty parity covers every
// parity. Lessons outside the scope or with an invalid day or pair are
// skipped and counted. Two lessons with the same slot key collapse to the
// later one.
func (s *Store) ReplaceLessons(ctx context.Context, groupCode string, day int, parity schedule.Parity, lessons []schedule.Lesson) (int, error) {
	groupCode = strings.TrimSpace(groupCode)
	if groupCode == "" {
		return 0, fmt.Errorf("replace lessons: group code is required")
	}
	inScope := make(map[string]struct{})
	for _, p := range parityScope(parity) {
		inScope[p] = struct{}{}
	}

	var skipped int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		skipped = 0
		clause, args := lessonScope(groupCode, day, parity)
		if _, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE "+clause, args...); err != nil {
			return fmt.Errorf("clear lessons for %s: %w", groupCode, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO lessons (group_code, day, pair, parity, id, time, subject, teacher, classroom, type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(group_code, day, pair, parity) DO UPDATE SET
				id = excluded.id,
				time = excluded.time,
				subject = excluded.subject,
				teacher = excluded.teacher,
				classroom = excluded.classroom,
				type = excluded.type`)
		if err != nil {
			return fmt.Errorf("prepare lesson insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range lessons {
			l.GroupCode = groupCode
			if l.Parity == "" {
				l.Parity = schedule.Both
			}
			if l.Type == "" {
				l.Type = schedule.Practice
			}
			if !schedule.ValidDay(l.Day) || !schedule.ValidPair(l.Pair) || strings.TrimSpace(l.Subject) == "" {
				skipped++
				continue
			}
			if day > 0 && l.Day != day {
				skipped++
				continue
			}
			if len(inScope) > 0 {
				if _, ok := inScope[string(l.Parity)]; !ok {
					skipped++
					continue
				}
			}
			if l.ID == "" {
				l.ID = schedule.LessonID(l)
			}
			if _, err := stmt.ExecContext(ctx, l.GroupCode, l.Day, l.Pair, string(l.Parity), l.ID, l.Time,
				l.Subject, nullableString(l.Teacher), nullableString(l.Classroom), string(l.Type)); err != nil {
				return fmt.Errorf("insert lesson %s day %d pair %d: %w", groupCode, l.Day, l.Pair, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return skipped, nil
}

// Lessons returns the cached lessons of a group for a day (0 = all days) and
// parity (empty = all). Odd and even include lessons held every week.
func (s *Store) Lessons(ctx context.Context, groupCode string, day int, parity schedule.Parity) ([]schedule.Lesson, error) {
	clause, args := lessonScope(groupCode, day, parity)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+lessonColumns+" FROM lessons WHERE "+clause+" ORDER BY day, pair, parity", args...)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	return scanLessonRows(rows)
}

// ReplaceExams replaces every exam and test of groupCode. Records without a
// subject or date are skipped and counted.
func (s *Store) ReplaceExams(ctx context.Context, groupCode string, exams []schedule.Exam) (int, error) {
	groupCode = strings.TrimSpace(groupCode)
	if groupCode == "" {
		return 0, fmt.Errorf("replace exams: group code is required")
	}

	var skipped int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		skipped = 0
		if _, err := tx.ExecContext(ctx, "DELETE FROM exams WHERE group_code = ?", groupCode); err != nil {
			return fmt.Errorf("clear exams for %s: %w", groupCode, err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO exams (group_code, id, subject, teacher, date, time, classroom, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare exam insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range exams {
			e.GroupCode = groupCode
			if strings.TrimSpace(e.Subject) == "" || strings.TrimSpace(e.Date) == "" {
				skipped++
				continue
			}
			if e.Kind == "" {
				e.Kind = schedule.KindExam
			}
			if e.ID == "" {
				e.ID = schedule.ExamID(e)
			}
			if _, err := stmt.ExecContext(ctx, e.GroupCode, e.ID, e.Subject, nullableString(e.Teacher),
				e.Date, nullableString(e.Time), nullableString(e.Classroom), string(e.Kind)); err != nil {
				return fmt.Errorf("insert exam %s %s: %w", groupCode, e.Subject, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return skipped, nil
}

// Exams returns the cached exams of a group. An empty kind returns exams and
// tests together.
func (s *Store) Exams(ctx context.Context, groupCode string, kind schedule.ExamKind) ([]schedule.Exam, error) {
	query := "SELECT " + examColumns + " FROM exams WHERE group_code = ?"
	args := []any{groupCode}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY date, time, subject, id"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	return scanExamRows(rows)
}
