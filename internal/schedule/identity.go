package schedule

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var recordNamespace = uuid.MustParse("5b0f3f4e-8a51-4c1e-9a55-2f1c1f0b7e21")

// LessonID derives a stable identifier from the lesson's natural key so an
// unchanged upstream yields identical rows on every sync.
func LessonID(l Lesson) string {
	key := strings.Join([]string{
		"lesson", l.GroupCode, strconv.Itoa(l.Day), strconv.Itoa(l.Pair), string(l.Parity),
	}, "|")
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// ExamID derives a stable identifier for an exam record.
func ExamID(e Exam) string {
	key := strings.Join([]string{
		"exam", e.GroupCode, e.Subject, e.Date, e.Time, string(e.Kind),
	}, "|")
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// FacultyID derives a stable identifier for a faculty that arrived without one.
func FacultyID(code string) string {
	return uuid.NewSHA1(recordNamespace, []byte("faculty|"+code)).String()
}
