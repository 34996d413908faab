package cache

import (
	"database/sql"
	"fmt"

	"timetable/internal/schedule"
)

const (
	facultyColumns = "id, code, name, description"
	groupColumns   = "faculty_code, code, name, course, form, department_id, department_name"
	lessonColumns  = "id, group_code, day, pair, time, subject, teacher, classroom, type, parity"
	examColumns    = "id, group_code, subject, teacher, date, time, classroom, kind"
)

func scanFacultyRows(rows *sql.Rows) ([]schedule.Faculty, error) {
	defer rows.Close()
	var out []schedule.Faculty
	for rows.Next() {
		var (
			f    schedule.Faculty
			desc sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Code, &f.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan faculty: %w", err)
		}
		f.Description = desc.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanGroupRows(rows *sql.Rows) ([]schedule.Group, error) {
	defer rows.Close()
	var out []schedule.Group
	for rows.Next() {
		var (
			g              schedule.Group
			form           string
			deptID, deptNm sql.NullString
		)
		if err := rows.Scan(&g.FacultyCode, &g.Code, &g.Name, &g.Course, &form, &deptID, &deptNm); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.Form = schedule.EducationForm(form)
		g.DepartmentID = deptID.String
		g.DepartmentName = deptNm.String
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanLessonRows(rows *sql.Rows) ([]schedule.Lesson, error) {
	defer rows.Close()
	var out []schedule.Lesson
	for rows.Next() {
		var (
			l                  schedule.Lesson
			teacher, classroom sql.NullString
			kind, parity       string
		)
		if err := rows.Scan(&l.ID, &l.GroupCode, &l.Day, &l.Pair, &l.Time, &l.Subject,
			&teacher, &classroom, &kind, &parity); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		l.Teacher = teacher.String
		l.Classroom = classroom.String
		l.Type = schedule.LessonType(kind)
		l.Parity = schedule.Parity(parity)
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanExamRows(rows *sql.Rows) ([]schedule.Exam, error) {
	defer rows.Close()
	var out []schedule.Exam
	for rows.Next() {
		var (
			e                      schedule.Exam
			teacher, tm, classroom sql.NullString
			kind                   string
		)
		if err := rows.Scan(&e.ID, &e.GroupCode, &e.Subject, &teacher, &e.Date, &tm, &classroom, &kind); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		e.Teacher = teacher.String
		e.Time = tm.String
		e.Classroom = classroom.String
		e.Kind = schedule.ExamKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
