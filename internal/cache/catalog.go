package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"timetable/internal/schedule"
)

// ReplaceFaculties makes faculties the complete faculty catalog. Faculties
// missing from the list are deleted (their groups cascade with them); the
// rest are upserted so their groups survive. Records without a code are
// skipped and counted.
func (s *Store) ReplaceFaculties(ctx context.Context, faculties []schedule.Faculty) (int, error) {
	var skipped int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		skipped = 0
		keep := make(map[string]schedule.Faculty, len(faculties))
		order := make([]string, 0, len(faculties))
		for _, f := range faculties {
			f.Code = strings.TrimSpace(f.Code)
			if f.Code == "" || strings.TrimSpace(f.Name) == "" {
				skipped++
				continue
			}
			if f.ID == "" {
				f.ID = schedule.FacultyID(f.Code)
			}
			if _, seen := keep[f.Code]; !seen {
				order = append(order, f.Code)
			}
			keep[f.Code] = f
		}

		existing, err := queryStrings(ctx, tx, "SELECT code FROM faculties")
		if err != nil {
			return fmt.Errorf("list faculties: %w", err)
		}
		for _, code := range existing {
			if _, ok := keep[code]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM faculties WHERE code = ?", code); err != nil {
				return fmt.Errorf("delete faculty %s: %w", code, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO faculties (code, id, name, description) VALUES (?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET id = excluded.id, name = excluded.name, description = excluded.description`)
		if err != nil {
			return fmt.Errorf("prepare faculty upsert: %w", err)
		}
		defer stmt.Close()
		for _, code := range order {
			f := keep[code]
			if _, err := stmt.ExecContext(ctx, f.Code, f.ID, f.Name, nullableString(f.Description)); err != nil {
				return fmt.Errorf("upsert faculty %s: %w", f.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return skipped, nil
}

// Faculties returns every cached faculty ordered by name.
func (s *Store) Faculties(ctx context.Context) ([]schedule.Faculty, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+facultyColumns+" FROM faculties ORDER BY name, code")
	if err != nil {
		return nil, fmt.Errorf("query faculties: %w", err)
	}
	return scanFacultyRows(rows)
}

// ReplaceGroups makes groups the complete group catalog. A group whose
// faculty is not cached, or that lacks a code, is skipped and counted rather
// than failing the whole replacement. Course values outside 1..6 are stored
// as 0 (unresolved).
func (s *Store) ReplaceGroups(ctx context.Context, groups []schedule.Group) (int, error) {
	var skipped int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		skipped = 0
		codes, err := queryStrings(ctx, tx, "SELECT code FROM faculties")
		if err != nil {
			return fmt.Errorf("list faculties: %w", err)
		}
		known := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			known[code] = struct{}{}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM student_groups"); err != nil {
			return fmt.Errorf("clear groups: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO student_groups (faculty_code, code, name, course, form, department_id, department_name)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(faculty_code, code) DO UPDATE SET
				name = excluded.name,
				course = excluded.course,
				form = excluded.form,
				department_id = excluded.department_id,
				department_name = excluded.department_name`)
		if err != nil {
			return fmt.Errorf("prepare group insert: %w", err)
		}
		defer stmt.Close()

		for _, g := range groups {
			if _, ok := known[g.FacultyCode]; !ok || strings.TrimSpace(g.Code) == "" {
				skipped++
				continue
			}
			if !schedule.ValidCourse(g.Course) {
				g.Course = 0
			}
			if g.Form == "" {
				g.Form = schedule.FullTime
			}
			if g.Name == "" {
				g.Name = g.Code
			}
			if _, err := stmt.ExecContext(ctx, g.FacultyCode, g.Code, g.Name, g.Course, string(g.Form),
				nullableString(g.DepartmentID), nullableString(g.DepartmentName)); err != nil {
				return fmt.Errorf("insert group %s/%s: %w", g.FacultyCode, g.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return skipped, nil
}

// Groups returns the groups of a faculty filtered by education form and
// course. An empty faculty or form and a zero course disable that filter.
// Groups with an unresolved course (0) match every course filter.
func (s *Store) Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) ([]schedule.Group, error) {
	query := "SELECT " + groupColumns + " FROM student_groups WHERE 1 = 1"
	var args []any
	if facultyCode != "" {
		query += " AND faculty_code = ?"
		args = append(args, facultyCode)
	}
	if form != "" {
		query += " AND form = ?"
		args = append(args, string(form))
	}
	if course > 0 {
		query += " AND (course = ? OR course = 0)"
		args = append(args, course)
	}
	query += " ORDER BY faculty_code, course, code"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	return scanGroupRows(rows)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, rows.Err()
}
