package primary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/sources/primary"
)

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server, opts ...primary.Option) *primary.Client {
	t.Helper()
	opts = append([]primary.Option{primary.WithHTTPClient(server.Client())}, opts...)
	client, err := primary.New(server.URL+"/", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := primary.New("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestFetchFacultiesAcceptsWrappedAndBareLists(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `[{"code":"FIT","name":"Information Technology"},{"code":"","name":"broken"}]`},
		{"data", `{"data":[{"code":"FIT","title":"Information Technology","id":"f-1"}]}`},
		{"nested", `{"data":{"faculties":[{"short_name":"FIT","full_name":"Information Technology"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, map[string]string{"/faculties": tt.body})
			env := newClient(t, server).FetchFaculties(context.Background())
			faculties, ok := env.Get()
			if !ok {
				t.Fatalf("expected success, got %+v", env)
			}
			if len(faculties) != 1 || faculties[0].Code != "FIT" || faculties[0].Name != "Information Technology" {
				t.Fatalf("unexpected faculties %+v", faculties)
			}
		})
	}
}

func TestFetchFacultiesClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty list", `[]`, sources.CodeSourceEmpty},
		{"invalid json", `{"data": [`, sources.CodeParseFailure},
		{"not a list", `{"status":"ok"}`, sources.CodeParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, map[string]string{"/faculties": tt.body})
			env := newClient(t, server).FetchFaculties(context.Background())
			if !env.IsError() || env.Code != tt.code {
				t.Fatalf("expected %s, got %+v", tt.code, env)
			}
		})
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	env := newClient(t, server).FetchFaculties(context.Background())
	if env.Code != sources.CodeSourceUnavailable {
		t.Fatalf("expected unavailable for 503, got %+v", env)
	}
}

func TestFetchGroupsNormalizesAndFilters(t *testing.T) {
	server := newServer(t, map[string]string{
		"/faculties/FIT/groups": `{"groups":[
			{"code":"ит–21 ","course":"2","form":"part_time","department":{"id":"d1","name":"Software"}},
			{"code":"ИТ-01","course":1},
			{"code":"ЭК-11","faculty_code":"ECO"},
			{"name":""}
		]}`,
	})
	env := newClient(t, server).FetchGroupsForFaculty(context.Background(), "FIT")
	groups, ok := env.Get()
	if !ok {
		t.Fatalf("expected success, got %+v", env)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", groups)
	}
	first := groups[0]
	if first.Code != "ИТ-21" || first.Course != 2 || first.Form != schedule.PartTime || first.FacultyCode != "FIT" {
		t.Fatalf("unexpected first group %+v", first)
	}
	if first.DepartmentID != "d1" || first.DepartmentName != "Software" {
		t.Fatalf("expected department fields, got %+v", first)
	}
	if groups[1].Form != schedule.FullTime || groups[1].Course != 1 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

func TestFetchScheduleSendsFiltersAndKey(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"lessons":[
			{"day":"2","pair":1,"start":"08:30","end":"10:00","subject":"Algebra","teacher":{"name":"Ivanova"},"room":"101","type":"Лекция","week":"нечет"},
			{"day":"Вторник","pair_number":"2","time":"10:10-11:40","subject":"Physics"},
			{"day":9,"pair":1,"subject":"Ghost"}
		],"exams":[
			{"subject":"Algebra","date":"2026-01-12","type":"зачёт"},
			{"subject":"No date"}
		]}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server, primary.WithAPIKey("secret"))
	env := client.FetchScheduleForGroup(context.Background(), "ИТ-21", 2, schedule.Odd)
	got, ok := env.Get()
	if !ok {
		t.Fatalf("expected success, got %+v", env)
	}
	if gotQuery != "day=2&parity=odd" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if len(got.Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %+v", got.Lessons)
	}
	first := got.Lessons[0]
	if first.Time != "08:30-10:00" || first.Teacher != "Ivanova" || first.Type != schedule.Lecture || first.Parity != schedule.Odd {
		t.Fatalf("unexpected first lesson %+v", first)
	}
	second := got.Lessons[1]
	if second.Day != 2 || second.Pair != 2 || second.Parity != schedule.Both || second.GroupCode != "ИТ-21" {
		t.Fatalf("unexpected second lesson %+v", second)
	}
	if len(got.Exams) != 1 || got.Exams[0].Kind != schedule.KindTest {
		t.Fatalf("unexpected exams %+v", got.Exams)
	}
}

func TestFetchScheduleEmptyIsSourceEmpty(t *testing.T) {
	server := newServer(t, map[string]string{"/groups/X-1/schedule": `{"data":{"lessons":[],"exams":[]}}`})
	env := newClient(t, server).FetchScheduleForGroup(context.Background(), "X-1", 0, schedule.AnyParity)
	if env.Code != sources.CodeSourceEmpty {
		t.Fatalf("expected source_empty, got %+v", env)
	}

	missing := newClient(t, server).FetchScheduleForGroup(context.Background(), "Y-2", 0, schedule.AnyParity)
	if missing.Code != sources.CodeSourceEmpty {
		t.Fatalf("expected 404 to be source_empty, got %+v", missing)
	}
}

func TestFetchBellsAndDepartments(t *testing.T) {
	server := newServer(t, map[string]string{
		"/bells":       `[{"pair":1,"start":"08:30","end":"10:00"},{"number":"2","time":"10:10 - 11:40"},{"pair":12,"start":"x","end":"y"}]`,
		"/departments": `{"data":[{"id":7,"name":"Software","faculty":{"code":"FIT"}},{"id":8}]}`,
	})
	client := newClient(t, server)

	bells, ok := client.FetchBellSchedule(context.Background()).Get()
	if !ok || len(bells) != 2 {
		t.Fatalf("unexpected bells %+v", bells)
	}
	if bells[1] != (schedule.BellSlot{Pair: 2, Start: "10:10", End: "11:40"}) {
		t.Fatalf("unexpected second bell %+v", bells[1])
	}

	departments, ok := client.FetchDepartments(context.Background()).Get()
	if !ok || len(departments) != 1 {
		t.Fatalf("unexpected departments %+v", departments)
	}
	if departments[0].ID != "7" || departments[0].FacultyCode != "FIT" {
		t.Fatalf("unexpected department %+v", departments[0])
	}
}
