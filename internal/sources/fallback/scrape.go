package fallback

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/schedule"
	"timetable/internal/textutil"
)

var (
	spaceRun       = regexp.MustCompile(`\s+`)
	groupCodeRe    = regexp.MustCompile(`\p{L}{0,6}[-‐–—]?\d{1,3}(?:[-‐–—]\d{1,3})?\p{L}?`)
	courseHeading  = regexp.MustCompile(`(?i)([1-6])\s*(?:-?\s*й\s*)?(?:курс|course)`)
	timeRangeRe    = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s*\D{1,3}\s*(\d{1,2})[:.](\d{2})`)
	partTimeMarker = regexp.MustCompile(`(?i)заочн|part[- ]time|extramural`)
)

func cleanText(s *goquery.Selection) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s.Text(), " "))
}

// queryParam returns the value of key in the link's href.
func queryParam(link *goquery.Selection, key string) string {
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Query().Get(key))
}

func scrapeFaculties(doc *goquery.Document) []schedule.Faculty {
	var out []schedule.Faculty
	seen := make(map[string]struct{})
	doc.Find(`a[href*="faculty="]`).Each(func(_ int, link *goquery.Selection) {
		code := queryParam(link, "faculty")
		name := cleanText(link)
		if code == "" || name == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		description, _ := link.Attr("title")
		out = append(out, schedule.Faculty{Code: code, Name: name, Description: strings.TrimSpace(description)})
	})
	return out
}

func scrapeGroups(doc *goquery.Document, facultyCode string) []schedule.Group {
	var out []schedule.Group
	seen := make(map[string]struct{})
	doc.Find(`a[href*="group="]`).Each(func(_ int, link *goquery.Selection) {
		text := cleanText(link)
		code := textutil.NormalizeCode(queryParam(link, "group"))
		if code == "" {
			code = textutil.NormalizeCode(groupCodeRe.FindString(text))
		}
		if code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, schedule.Group{
			Code:        code,
			Name:        textutil.Ternary(text != "", text, code),
			Course:      sectionCourse(link),
			FacultyCode: facultyCode,
			Form:        sectionForm(link),
		})
	})
	return out
}

// sectionCourse reads the course from the nearest data-course attribute or
// from a "2 курс" style heading of the enclosing section. It returns 0 when
// neither is present.
func sectionCourse(link *goquery.Selection) int {
	if attr, ok := link.Closest("[data-course]").Attr("data-course"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(attr)); err == nil && schedule.ValidCourse(n) {
			return n
		}
	}
	for _, scope := range []string{"section", "table", "div"} {
		heading := link.Closest(scope).Find("h2, h3, h4, caption").First()
		if m := courseHeading.FindStringSubmatch(cleanText(heading)); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n
		}
	}
	return 0
}

func sectionForm(link *goquery.Selection) schedule.EducationForm {
	if attr, ok := link.Closest("[data-form]").Attr("data-form"); ok {
		return schedule.ParseEducationForm(attr)
	}
	heading := link.Closest("section").Find("h2, h3, h4").First()
	if partTimeMarker.MatchString(cleanText(heading)) {
		return schedule.PartTime
	}
	return schedule.FullTime
}

// scrapeLessons reads table.timetable. Rows without a day cell continue the
// day of the previous row, which is how the site renders a day spanning
// several pairs.
func scrapeLessons(doc *goquery.Document, groupCode string) []schedule.Lesson {
	var out []schedule.Lesson
	currentDay := 0
	doc.Find("table.timetable tr").Each(func(_ int, row *goquery.Selection) {
		if dayCell := row.Find(".day"); dayCell.Length() > 0 {
			if text := cleanText(dayCell); text != "" {
				currentDay = schedule.ParseDay(text)
			}
		}
		if attr, ok := row.Attr("data-day"); ok {
			currentDay = schedule.ParseDay(attr)
		}
		subject := cleanText(row.Find(".subject"))
		if subject == "" || currentDay == 0 {
			return
		}
		pair, err := strconv.Atoi(strings.TrimSpace(cleanText(row.Find(".pair"))))
		if err != nil || !schedule.ValidPair(pair) {
			return
		}
		out = append(out, schedule.Lesson{
			GroupCode: groupCode,
			Day:       currentDay,
			Pair:      pair,
			Time:      normalizeTimeRange(cleanText(row.Find(".time"))),
			Subject:   subject,
			Teacher:   cleanText(row.Find(".teacher")),
			Classroom: cleanText(row.Find(".room")),
			Type:      schedule.ParseLessonType(cleanText(row.Find(".type"))),
			Parity:    schedule.ParseParity(cleanText(row.Find(".week"))),
		})
	})
	return out
}

func filterLessons(lessons []schedule.Lesson, day int, parity schedule.Parity) []schedule.Lesson {
	out := lessons[:0:0]
	for _, l := range lessons {
		if day > 0 && l.Day != day {
			continue
		}
		switch parity {
		case schedule.Odd, schedule.Even:
			if l.Parity != parity && l.Parity != schedule.Both {
				continue
			}
		case schedule.Both:
			if l.Parity != schedule.Both {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func scrapeExams(doc *goquery.Document, groupCode string) []schedule.Exam {
	var out []schedule.Exam
	doc.Find("table.exams tr").Each(func(_ int, row *goquery.Selection) {
		subject := cleanText(row.Find(".subject"))
		date := cleanText(row.Find(".date"))
		if subject == "" || date == "" {
			return
		}
		out = append(out, schedule.Exam{
			GroupCode: groupCode,
			Subject:   subject,
			Teacher:   cleanText(row.Find(".teacher")),
			Date:      date,
			Time:      cleanText(row.Find(".time")),
			Classroom: cleanText(row.Find(".room")),
			Kind:      schedule.ParseExamKind(cleanText(row.Find(".kind"))),
		})
	})
	return out
}

func scrapeBells(doc *goquery.Document) []schedule.BellSlot {
	var out []schedule.BellSlot
	doc.Find("table.bells tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		pair, err := strconv.Atoi(strings.TrimSpace(cleanText(cells.Eq(0))))
		if err != nil || !schedule.ValidPair(pair) {
			return
		}
		m := timeRangeRe.FindStringSubmatch(cleanText(cells.Eq(1)))
		if m == nil {
			return
		}
		out = append(out, schedule.BellSlot{
			Pair:  pair,
			Start: clock(m[1], m[2]),
			End:   clock(m[3], m[4]),
		})
	})
	return out
}

func scrapeDepartments(doc *goquery.Document) []schedule.Department {
	var out []schedule.Department
	doc.Find(`a[href*="department="]`).Each(func(_ int, link *goquery.Selection) {
		name := cleanText(link)
		if name == "" {
			return
		}
		faculty, _ := link.Closest("[data-faculty]").Attr("data-faculty")
		out = append(out, schedule.Department{
			ID:          queryParam(link, "department"),
			Name:        name,
			FacultyCode: strings.TrimSpace(faculty),
		})
	})
	return out
}

func normalizeTimeRange(value string) string {
	if m := timeRangeRe.FindStringSubmatch(value); m != nil {
		return clock(m[1], m[2]) + "-" + clock(m[3], m[4])
	}
	return value
}

func clock(hours, minutes string) string {
	if len(hours) == 1 {
		hours = "0" + hours
	}
	return hours + ":" + minutes
}
