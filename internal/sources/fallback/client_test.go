package fallback_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/sources/fallback"
)

const indexPage = `<html><body>
<nav>
  <a href="/?faculty=fit" title="Faculty of IT">Information  Technology</a>
  <a href="/?faculty=eco">Economics</a>
  <a href="/?faculty=fit">Information Technology</a>
  <a href="/about">About</a>
</nav>
</body></html>`

const facultyPage = `<html><body>
<section data-form="full_time">
  <h3>2 курс</h3>
  <ul>
    <li><a href="/?group=%D0%B8%D1%82-21">ИТ-21</a></li>
    <li><a href="/?group=">Группа ИТ–22м</a></li>
  </ul>
</section>
<section>
  <h3>Заочная форма</h3>
  <div data-course="3"><a href="/?group=ИТЗ-31">ИТЗ-31</a></div>
</section>
</body></html>`

const groupPage = `<html><body>
<table class="timetable">
  <tr><th>День</th><th>Пара</th><th>Время</th><th>Предмет</th></tr>
  <tr><td class="day">Понедельник</td><td class="pair">1</td><td class="time">8.30 – 10.00</td>
      <td class="subject">Algebra</td><td class="type">лек.</td><td class="teacher">Ivanova</td><td class="room">101</td><td class="week">нечет</td></tr>
  <tr><td class="day"></td><td class="pair">2</td><td class="time">10:10-11:40</td>
      <td class="subject">Physics</td><td class="type">лаб</td><td class="week">чет</td></tr>
  <tr data-day="3"><td class="pair">1</td><td class="subject">History</td></tr>
  <tr><td class="day">Четверг</td><td class="pair">9</td><td class="subject">Broken</td></tr>
</table>
<table class="exams">
  <tr><td class="date">2026-01-12</td><td class="subject">Algebra</td><td class="kind">Экзамен</td><td class="room">201</td></tr>
  <tr><td class="date">2026-01-15</td><td class="subject">History</td><td class="kind">Зачёт</td></tr>
  <tr><td class="date"></td><td class="subject">Nothing</td></tr>
</table>
</body></html>`

const bellsPage = `<table class="bells">
<tr><th>Пара</th><th>Время</th></tr>
<tr><td>1</td><td>8:30 – 10:00</td></tr>
<tr><td>2</td><td>10.10-11.40</td></tr>
<tr><td>x</td><td>12:00-13:30</td></tr>
</table>`

const departmentsPage = `<div data-faculty="fit"><ul>
<li><a href="/?department=12">Software Engineering</a></li>
<li><a href="/?department=13"> </a></li>
</ul></div>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		query := r.URL.Query()
		switch {
		case r.URL.Path == "/bells":
			_, _ = w.Write([]byte(bellsPage))
		case r.URL.Path == "/departments":
			_, _ = w.Write([]byte(departmentsPage))
		case query.Get("faculty") == "fit":
			_, _ = w.Write([]byte(facultyPage))
		case query.Get("faculty") != "":
			_, _ = w.Write([]byte(`<html><body><p>Нет групп</p></body></html>`))
		case query.Get("group") == "ИТ-21":
			_, _ = w.Write([]byte(groupPage))
		case query.Get("group") != "":
			_, _ = w.Write([]byte(`<html><body><table class="timetable"></table></body></html>`))
		default:
			_, _ = w.Write([]byte(indexPage))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server) *fallback.Client {
	t.Helper()
	client, err := fallback.New(server.URL, fallback.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestFetchFacultiesFromIndex(t *testing.T) {
	client := newClient(t, newSite(t))
	faculties, ok := client.FetchFaculties(context.Background()).Get()
	if !ok {
		t.Fatal("expected success")
	}
	if len(faculties) != 2 {
		t.Fatalf("expected 2 distinct faculties, got %+v", faculties)
	}
	if faculties[0] != (schedule.Faculty{Code: "fit", Name: "Information Technology", Description: "Faculty of IT"}) {
		t.Fatalf("unexpected first faculty %+v", faculties[0])
	}
}

func TestFetchGroupsExtractsCodesCoursesAndForms(t *testing.T) {
	client := newClient(t, newSite(t))
	groups, ok := client.FetchGroupsForFaculty(context.Background(), "fit").Get()
	if !ok {
		t.Fatal("expected success")
	}
	want := []schedule.Group{
		{Code: "ИТ-21", Name: "ИТ-21", Course: 2, FacultyCode: "fit", Form: schedule.FullTime},
		{Code: "ИТ-22М", Name: "Группа ИТ–22м", Course: 2, FacultyCode: "fit", Form: schedule.FullTime},
		{Code: "ИТЗ-31", Name: "ИТЗ-31", Course: 3, FacultyCode: "fit", Form: schedule.PartTime},
	}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %+v", len(want), groups)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Fatalf("group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}
}

func TestFetchGroupsEmptyPageIsSourceEmpty(t *testing.T) {
	client := newClient(t, newSite(t))
	env := client.FetchGroupsForFaculty(context.Background(), "eco")
	if !env.IsError() || env.Code != sources.CodeSourceEmpty {
		t.Fatalf("expected source_empty, got %+v", env)
	}
}

func TestFetchScheduleParsesAndFilters(t *testing.T) {
	client := newClient(t, newSite(t))

	all, ok := client.FetchScheduleForGroup(context.Background(), "ИТ-21", 0, schedule.AnyParity).Get()
	if !ok {
		t.Fatal("expected success")
	}
	if len(all.Lessons) != 3 {
		t.Fatalf("expected 3 lessons, got %+v", all.Lessons)
	}
	first := all.Lessons[0]
	if first.Day != 1 || first.Pair != 1 || first.Time != "08:30-10:00" || first.Type != schedule.Lecture || first.Parity != schedule.Odd {
		t.Fatalf("unexpected first lesson %+v", first)
	}
	if all.Lessons[1].Day != 1 || all.Lessons[1].Type != schedule.Lab || all.Lessons[1].Parity != schedule.Even {
		t.Fatalf("expected continuation row on monday, got %+v", all.Lessons[1])
	}
	if all.Lessons[2].Day != 3 || all.Lessons[2].Parity != schedule.Both {
		t.Fatalf("unexpected data-day lesson %+v", all.Lessons[2])
	}
	if len(all.Exams) != 2 || all.Exams[1].Kind != schedule.KindTest {
		t.Fatalf("unexpected exams %+v", all.Exams)
	}

	odd, ok := client.FetchScheduleForGroup(context.Background(), "ИТ-21", 0, schedule.Odd).Get()
	if !ok || len(odd.Lessons) != 2 {
		t.Fatalf("expected odd week to include both-week lessons, got %+v", odd.Lessons)
	}
	monday, ok := client.FetchScheduleForGroup(context.Background(), "ИТ-21", 1, schedule.AnyParity).Get()
	if !ok || len(monday.Lessons) != 2 {
		t.Fatalf("expected two monday lessons, got %+v", monday.Lessons)
	}

	empty := client.FetchScheduleForGroup(context.Background(), "ЭК-11", 0, schedule.AnyParity)
	if empty.Code != sources.CodeSourceEmpty {
		t.Fatalf("expected source_empty for empty table, got %+v", empty)
	}
}

func TestFetchBellsAndDepartments(t *testing.T) {
	client := newClient(t, newSite(t))

	bells, ok := client.FetchBellSchedule(context.Background()).Get()
	if !ok || len(bells) != 2 {
		t.Fatalf("unexpected bells %+v", bells)
	}
	if bells[0] != (schedule.BellSlot{Pair: 1, Start: "08:30", End: "10:00"}) {
		t.Fatalf("unexpected first bell %+v", bells[0])
	}

	departments, ok := client.FetchDepartments(context.Background()).Get()
	if !ok || len(departments) != 1 {
		t.Fatalf("unexpected departments %+v", departments)
	}
	if departments[0] != (schedule.Department{ID: "12", Name: "Software Engineering", FacultyCode: "fit"}) {
		t.Fatalf("unexpected department %+v", departments[0])
	}
}

func TestUnavailableSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	env := newClient(t, server).FetchFaculties(context.Background())
	if env.Code != sources.CodeSourceUnavailable {
		t.Fatalf("expected source_unavailable, got %+v", env)
	}
}
