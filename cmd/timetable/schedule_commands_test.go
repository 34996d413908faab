package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"timetable/internal/result"
	"timetable/internal/schedule"
)

func TestFacultiesViaDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "faculties")
	if err != nil {
		t.Fatalf("faculties: %v", err)
	}
	requireContains(t, out, "FIT")
	requireContains(t, out, "Information Technology")
}

func TestGroupsFilterByCourse(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "groups", "FIT", "--course", "3")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	requireContains(t, out, "ИТ-3")
	requireNotContains(t, out, "ИТ-1")

	if _, err := runCLI(t, env.configPath, "groups", "FIT", "--course", "9"); err == nil {
		t.Fatal("expected out-of-range course to fail")
	}
}

func TestDayFiltersByParity(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "day", "ИТ-1", "--day", "monday", "--parity", "odd")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	requireContains(t, out, "Algebra")
	requireContains(t, out, "08:30-10:00")
	requireNotContains(t, out, "Physics")

	out, err = runCLI(t, env.configPath, "day", "ИТ-1", "--day", "week")
	if err != nil {
		t.Fatalf("day week: %v", err)
	}
	requireContains(t, out, "Monday")
	requireContains(t, out, "Physics")
}

func TestExamsAndTestsAreSeparated(t *testing.T) {
	env := setupCLITestEnv(t)

	// The first read of an unknown group may only start the fetch.
	if _, err := runCLI(t, env.configPath, "day", "ИТ-1", "--day", "week"); err != nil {
		t.Fatalf("warm group: %v", err)
	}

	out, err := runCLI(t, env.configPath, "exams", "ИТ-1")
	if err != nil {
		t.Fatalf("exams: %v", err)
	}
	requireContains(t, out, "Algebra")
	requireNotContains(t, out, "History")

	out, err = runCLI(t, env.configPath, "tests", "ИТ-1")
	if err != nil {
		t.Fatalf("tests: %v", err)
	}
	requireContains(t, out, "History")
	requireNotContains(t, out, "Algebra")
}

func TestJSONOutputCarriesEnvelope(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "--json", "faculties")
	if err != nil {
		t.Fatalf("faculties --json: %v", err)
	}
	var decoded result.Envelope[[]schedule.Faculty]
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	faculties, ok := decoded.Get()
	if !ok || len(faculties) != 1 || faculties[0].Code != "FIT" {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
}

func TestDayRejectsUnknownDay(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, env.configPath, "day", "ИТ-1", "--day", "funday")
	if err == nil || !strings.Contains(err.Error(), "invalid day") {
		t.Fatalf("expected invalid day error, got %v", err)
	}
}

func TestResolveDay(t *testing.T) {
	wednesday := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		now   time.Time
		want  int
	}{
		{name: "today on a weekday", value: "today", now: wednesday, want: 3},
		{name: "today on sunday is the week", value: "today", now: sunday, want: 0},
		{name: "week", value: "week", now: wednesday, want: 0},
		{name: "empty", value: "", now: wednesday, want: 0},
		{name: "number", value: "5", now: wednesday, want: 5},
		{name: "name", value: "Saturday", now: wednesday, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveDay(tt.value, tt.now)
			if err != nil {
				t.Fatalf("resolveDay(%q): %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("resolveDay(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}

	if _, err := resolveDay("7", wednesday); err == nil {
		t.Fatal("expected day 7 to be rejected")
	}
}
