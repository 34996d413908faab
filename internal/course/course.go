// Package course derives a course number (year of study) from a free-form
// group code when an upstream omits or corrupts the course field.
//
// Rules are tried in order and the first match wins:
//
//  1. One or two digits. "0N" is a group number; N (1..4) is used as a last
//     resort course and any other N leaves the code unresolved. Otherwise a
//     value of 1..4 is the course.
//  2. A '-' separator. A numeric prefix of 1..4 is the course. Otherwise a
//     suffix of one digit, or two digits not starting with 0, in 1..6 is the
//     course; a suffix "0N" yields N (1..4) or, for other N, unresolved.
//  3. The first digit run in the code, if in 1..6; else the last digit run,
//     if in 1..6.
//  4. Otherwise 0: unresolved, which callers treat as a wildcard.
//
// The heuristic mirrors what downstream group matching already depends on,
// including its tie-breaks for codes such as "01".
package course

import (
	"regexp"
	"strconv"
	"strings"

	"timetable/internal/textutil"
)

// Unresolved is returned when no rule matches.
const Unresolved = 0

const (
	maxDirectCourse = 4
	maxCourse       = 6
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Resolve returns the course number encoded in code, or Unresolved.
func Resolve(code string) int {
	code = textutil.NormalizeCode(code)
	if code == "" {
		return Unresolved
	}
	if course, ok := resolveNumeric(code); ok {
		return course
	}
	if course, ok := resolveDashed(code); ok {
		return course
	}
	if course, ok := resolveDigitRuns(code); ok {
		return course
	}
	return Unresolved
}

func resolveNumeric(code string) (int, bool) {
	if len(code) > 2 || !textutil.IsDigits(code) {
		return 0, false
	}
	if len(code) == 2 && code[0] == '0' {
		return secondDigit(code), true
	}
	value, _ := strconv.Atoi(code)
	return value, inRange(value, maxDirectCourse)
}

func resolveDashed(code string) (int, bool) {
	prefix, rest, found := strings.Cut(code, "-")
	if !found {
		return 0, false
	}
	if textutil.IsDigits(prefix) {
		if value, _ := strconv.Atoi(prefix); inRange(value, maxDirectCourse) {
			return value, true
		}
	}
	suffix, _, _ := strings.Cut(rest, "-")
	if !textutil.IsDigits(suffix) || len(suffix) > 2 {
		return 0, false
	}
	if len(suffix) == 2 && suffix[0] == '0' {
		return secondDigit(suffix), true
	}
	value, _ := strconv.Atoi(suffix)
	return value, inRange(value, maxCourse)
}

func resolveDigitRuns(code string) (int, bool) {
	runs := digitRun.FindAllString(code, -1)
	if len(runs) == 0 {
		return 0, false
	}
	if value, err := strconv.Atoi(runs[0]); err == nil && inRange(value, maxCourse) {
		return value, true
	}
	if value, err := strconv.Atoi(runs[len(runs)-1]); err == nil && inRange(value, maxCourse) {
		return value, true
	}
	return 0, false
}

// secondDigit reads "0N" as course N when N is 1..4. Any other "0N" is a
// bare group number and stays unresolved.
func secondDigit(twoDigits string) int {
	value := int(twoDigits[1] - '0')
	if !inRange(value, maxDirectCourse) {
		return Unresolved
	}
	return value
}

func inRange(value, limit int) bool {
	return value >= 1 && value <= limit
}
