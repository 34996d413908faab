package schedule

import (
	"time"
)

// Faculty is the top-level catalog entry. Code is the stable business key.
type Faculty struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Group is a student group. Course 0 means the course could not be resolved
// and the group matches every course filter.
type Group struct {
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	Course         int           `json:"course"`
	FacultyCode    string        `json:"faculty_code"`
	Form           EducationForm `json:"form"`
	DepartmentID   string        `json:"department_id,omitempty"`
	DepartmentName string        `json:"department_name,omitempty"`
}

// Lesson is one timetable slot. (GroupCode, Day, Pair, Parity) is unique.
type Lesson struct {
	ID        string     `json:"id"`
	GroupCode string     `json:"group_code"`
	Day       int        `json:"day"`
	Pair      int        `json:"pair"`
	Time      string     `json:"time"`
	Subject   string     `json:"subject"`
	Teacher   string     `json:"teacher,omitempty"`
	Classroom string     `json:"classroom,omitempty"`
	Type      LessonType `json:"type"`
	Parity    Parity     `json:"parity"`
}

// Exam is an exam or a pass/fail test for a group.
type Exam struct {
	ID        string   `json:"id"`
	GroupCode string   `json:"group_code"`
	Subject   string   `json:"subject"`
	Teacher   string   `json:"teacher,omitempty"`
	Date      string   `json:"date"`
	Time      string   `json:"time,omitempty"`
	Classroom string   `json:"classroom,omitempty"`
	Kind      ExamKind `json:"kind,omitempty"`
}

// GroupSchedule is what a source returns for one group: its lessons and its
// exam session.
type GroupSchedule struct {
	Lessons []Lesson `json:"lessons"`
	Exams   []Exam   `json:"exams"`
}

// Empty reports whether the schedule carries no records at all.
func (s GroupSchedule) Empty() bool {
	return len(s.Lessons) == 0 && len(s.Exams) == 0
}

// BellSlot is the start and end time of one pair.
type BellSlot struct {
	Pair  int    `json:"pair"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Department is a teaching department (chair).
type Department struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FacultyCode string `json:"faculty_code,omitempty"`
}

// SyncState records the last pass that wrote the faculty catalog.
type SyncState struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	LastSource string     `json:"last_source,omitempty"`
}

const (
	MinDay    = 1
	MaxDay    = 6
	MinPair   = 1
	MaxPair   = 7
	MaxCourse = 6
)

// ValidDay reports whether day is a teaching day (Monday=1 .. Saturday=6).
func ValidDay(day int) bool { return day >= MinDay && day <= MaxDay }

// ValidPair reports whether pair is a pair number in the bell schedule.
func ValidPair(pair int) bool { return pair >= MinPair && pair <= MaxPair }

// ValidCourse reports whether course is a resolved course number.
func ValidCourse(course int) bool { return course >= 1 && course <= MaxCourse }
