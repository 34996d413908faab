package primary

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"timetable/internal/schedule"
	"timetable/internal/textutil"
)

// listRoot returns the array holding the records of a list payload. The API
// answers either with a bare array or with the array under one of the usual
// envelope keys.
func listRoot(doc gjson.Result, keys ...string) (gjson.Result, bool) {
	if doc.IsArray() {
		return doc, true
	}
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	for _, key := range append(keys, "data", "items", "results") {
		if value := doc.Get(key); value.IsArray() {
			return value, true
		}
		if nested := doc.Get("data." + key); nested.IsArray() {
			return nested, true
		}
	}
	return gjson.Result{}, false
}

// str returns the first non-empty scalar among paths as a string.
func str(item gjson.Result, paths ...string) string {
	for _, path := range paths {
		value := item.Get(path)
		if !value.Exists() || value.Type == gjson.Null || value.IsObject() || value.IsArray() {
			continue
		}
		if s := strings.TrimSpace(value.String()); s != "" {
			return s
		}
	}
	return ""
}

// integer returns the first field among paths that holds a number, either
// as a JSON number or as a numeric string.
func integer(item gjson.Result, paths ...string) (int, bool) {
	for _, path := range paths {
		value := item.Get(path)
		switch value.Type {
		case gjson.Number:
			return int(value.Int()), true
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(value.Str)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func decodeFaculty(item gjson.Result) (schedule.Faculty, bool) {
	f := schedule.Faculty{
		ID:          str(item, "id", "uuid"),
		Code:        str(item, "code", "short_name", "abbr"),
		Name:        str(item, "name", "title", "full_name"),
		Description: str(item, "description"),
	}
	if f.Code == "" || f.Name == "" {
		return schedule.Faculty{}, false
	}
	return f, true
}

func decodeGroup(item gjson.Result, facultyCode string) (schedule.Group, bool) {
	code := textutil.NormalizeCode(str(item, "code", "number", "name"))
	if code == "" {
		return schedule.Group{}, false
	}
	if owner := str(item, "faculty_code", "faculty.code", "faculty"); owner != "" && !strings.EqualFold(owner, facultyCode) {
		return schedule.Group{}, false
	}
	course, _ := integer(item, "course", "year")
	return schedule.Group{
		Code:           code,
		Name:           firstNonEmpty(str(item, "name", "title"), code),
		Course:         course,
		FacultyCode:    facultyCode,
		Form:           schedule.ParseEducationForm(str(item, "form", "education_form", "study_form")),
		DepartmentID:   str(item, "department_id", "department.id"),
		DepartmentName: str(item, "department_name", "department.name"),
	}, true
}

func decodeLesson(item gjson.Result, groupCode string) (schedule.Lesson, bool) {
	day, ok := integer(item, "day", "day_of_week", "weekday")
	if !ok {
		day = schedule.ParseDay(str(item, "day", "day_of_week", "weekday"))
	}
	pair, _ := integer(item, "pair", "pair_number", "number")
	lesson := schedule.Lesson{
		ID:        str(item, "id"),
		GroupCode: groupCode,
		Day:       day,
		Pair:      pair,
		Time:      timeRange(item),
		Subject:   str(item, "subject", "discipline", "name"),
		Teacher:   str(item, "teacher", "teacher.name", "lecturer"),
		Classroom: str(item, "classroom", "room", "auditorium"),
		Type:      schedule.ParseLessonType(str(item, "type", "kind", "lesson_type")),
		Parity:    schedule.ParseParity(str(item, "parity", "week", "week_parity")),
	}
	if !schedule.ValidDay(lesson.Day) || !schedule.ValidPair(lesson.Pair) || lesson.Subject == "" {
		return schedule.Lesson{}, false
	}
	return lesson, true
}

func decodeExam(item gjson.Result, groupCode string) (schedule.Exam, bool) {
	exam := schedule.Exam{
		ID:        str(item, "id"),
		GroupCode: groupCode,
		Subject:   str(item, "subject", "discipline", "name"),
		Teacher:   str(item, "teacher", "teacher.name", "examiner"),
		Date:      str(item, "date"),
		Time:      str(item, "time", "start"),
		Classroom: str(item, "classroom", "room", "auditorium"),
		Kind:      schedule.ParseExamKind(str(item, "kind", "type")),
	}
	if exam.Subject == "" || exam.Date == "" {
		return schedule.Exam{}, false
	}
	return exam, true
}

func decodeBell(item gjson.Result) (schedule.BellSlot, bool) {
	pair, ok := integer(item, "pair", "number")
	if !ok || !schedule.ValidPair(pair) {
		return schedule.BellSlot{}, false
	}
	start, end := str(item, "start", "begin"), str(item, "end", "finish")
	if start == "" || end == "" {
		start, end, _ = strings.Cut(str(item, "time"), "-")
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	}
	if start == "" || end == "" {
		return schedule.BellSlot{}, false
	}
	return schedule.BellSlot{Pair: pair, Start: start, End: end}, true
}

func decodeDepartment(item gjson.Result) (schedule.Department, bool) {
	d := schedule.Department{
		ID:          str(item, "id", "code"),
		Name:        str(item, "name", "title"),
		FacultyCode: str(item, "faculty_code", "faculty.code", "faculty"),
	}
	if d.Name == "" {
		return schedule.Department{}, false
	}
	return d, true
}

func timeRange(item gjson.Result) string {
	if t := str(item, "time"); t != "" {
		return t
	}
	start, end := str(item, "start", "time_start"), str(item, "end", "time_end")
	switch {
	case start != "" && end != "":
		return start + "-" + end
	default:
		return start
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
