package schedule

import "strings"

// EducationForm is the study mode of a group.
type EducationForm string

const (
	FullTime EducationForm = "full_time"
	PartTime EducationForm = "part_time"
)

// ParseEducationForm maps API tokens and website labels to a form. Anything
// unrecognized is full-time.
func ParseEducationForm(value string) EducationForm {
	switch normalizeToken(value) {
	case "part_time", "parttime", "extramural", "заочная", "заочно", "очно_заочная", "очно-заочная":
		return PartTime
	default:
		return FullTime
	}
}

// LessonType classifies a lesson.
type LessonType string

const (
	Lecture  LessonType = "lecture"
	Practice LessonType = "practice"
	Lab      LessonType = "lab"
	Seminar  LessonType = "seminar"
)

// ParseLessonType maps API tokens and website abbreviations to a type.
// Anything unrecognized is a practice.
func ParseLessonType(value string) LessonType {
	v := normalizeToken(value)
	switch {
	case v == "lecture" || v == "lec" || strings.HasPrefix(v, "лек"):
		return Lecture
	case v == "lab" || v == "laboratory" || strings.HasPrefix(v, "лаб"):
		return Lab
	case v == "seminar" || v == "sem" || strings.HasPrefix(v, "сем"):
		return Seminar
	default:
		return Practice
	}
}

// Parity is the week parity a lesson applies to.
type Parity string

const (
	Odd  Parity = "odd"
	Even Parity = "even"
	Both Parity = "both"
	// AnyParity is used in queries to select every parity.
	AnyParity Parity = ""
)

// ParseParity maps API tokens, numbers, and website labels to a parity.
// Empty or unrecognized input is Both.
func ParseParity(value string) Parity {
	switch normalizeToken(value) {
	case "odd", "1", "нечет", "нечетная", "нечётная", "числитель":
		return Odd
	case "even", "2", "чет", "четная", "чётная", "знаменатель":
		return Even
	default:
		return Both
	}
}

// ParseParityFilter is ParseParity for query parameters: empty and "all"
// select every parity instead of Both.
func ParseParityFilter(value string) Parity {
	switch normalizeToken(value) {
	case "", "all", "any":
		return AnyParity
	default:
		return ParseParity(value)
	}
}

// ExamKind separates exams from pass/fail tests.
type ExamKind string

const (
	KindExam ExamKind = "exam"
	KindTest ExamKind = "test"
)

// ParseExamKind maps API tokens and website labels to a kind. Empty or
// unrecognized input is an exam.
func ParseExamKind(value string) ExamKind {
	v := normalizeToken(value)
	switch {
	case v == "test" || v == "credit" || strings.HasPrefix(v, "зач"):
		return KindTest
	default:
		return KindExam
	}
}

func normalizeToken(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(v, " ", "_")
}

var dayNames = map[string]int{
	"monday": 1, "mon": 1, "понедельник": 1, "пн": 1,
	"tuesday": 2, "tue": 2, "вторник": 2, "вт": 2,
	"wednesday": 3, "wed": 3, "среда": 3, "ср": 3,
	"thursday": 4, "thu": 4, "четверг": 4, "чт": 4,
	"friday": 5, "fri": 5, "пятница": 5, "пт": 5,
	"saturday": 6, "sat": 6, "суббота": 6, "сб": 6,
}

// ParseDay maps a weekday number (1..6) or name to a day. It returns 0 for
// Sunday and anything unrecognized.
func ParseDay(value string) int {
	v := strings.TrimSuffix(normalizeToken(value), ".")
	if day, ok := dayNames[v]; ok {
		return day
	}
	if len(v) == 1 && v[0] >= '1' && v[0] <= '6' {
		return int(v[0] - '0')
	}
	return 0
}
