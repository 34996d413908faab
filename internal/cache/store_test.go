package cache_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"timetable/internal/cache"
	"timetable/internal/schedule"
	"timetable/internal/testsupport"
)

func sampleFaculties() []schedule.Faculty {
	return []schedule.Faculty{
		{ID: "f1", Code: "FIT", Name: "Information Technology"},
		{ID: "f2", Code: "LAW", Name: "Law", Description: "School of law"},
	}
}

func sampleGroups() []schedule.Group {
	return []schedule.Group{
		{Code: "ИВТ-21", Name: "ИВТ-21", Course: 2, FacultyCode: "FIT", Form: schedule.FullTime},
		{Code: "ИВТ-31", Name: "ИВТ-31", Course: 3, FacultyCode: "FIT", Form: schedule.FullTime},
		{Code: "ABC", Name: "ABC", Course: 0, FacultyCode: "FIT", Form: schedule.FullTime},
		{Code: "З-11", Name: "З-11", Course: 1, FacultyCode: "FIT", Form: schedule.PartTime},
		{Code: "Ю-11", Name: "Ю-11", Course: 1, FacultyCode: "LAW", Form: schedule.FullTime},
	}
}

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	empty, err := store.IsEmpty(context.Background())
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if !empty {
		t.Fatal("new cache should be empty")
	}
	if err := store.CheckIntegrity(context.Background()); err != nil {
		t.Fatalf("CheckIntegrity: %v", err)
	}
	if store.Path() != cfg.CacheDBPath() {
		t.Fatalf("Path() = %q, want %q", store.Path(), cfg.CacheDBPath())
	}
	store.Close()

	reopened, err := cache.OpenPath(cfg.CacheDBPath())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestReplaceFacultiesKeepsGroupsOfSurvivingFaculties(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedCatalog(t, store, sampleFaculties(), sampleGroups())

	renamed := []schedule.Faculty{{ID: "f1", Code: "FIT", Name: "Faculty of IT"}}
	skipped, err := store.ReplaceFaculties(ctx, append(renamed, schedule.Faculty{Name: "no code"}))
	if err != nil {
		t.Fatalf("ReplaceFaculties: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}

	faculties, err := store.Faculties(ctx)
	if err != nil {
		t.Fatalf("Faculties: %v", err)
	}
	if len(faculties) != 1 || faculties[0].Name != "Faculty of IT" {
		t.Fatalf("unexpected faculties %#v", faculties)
	}

	fit, err := store.Groups(ctx, "FIT", "", 0)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(fit) != 4 {
		t.Fatalf("expected FIT groups to survive upsert, got %d", len(fit))
	}
	law, err := store.Groups(ctx, "LAW", "", 0)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(law) != 0 {
		t.Fatalf("expected LAW groups to cascade away, got %#v", law)
	}
}

func TestReplaceGroupsSkipsUnknownFaculty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	if _, err := store.ReplaceFaculties(ctx, sampleFaculties()); err != nil {
		t.Fatalf("ReplaceFaculties: %v", err)
	}

	groups := append(sampleGroups(), schedule.Group{Code: "X-1", FacultyCode: "GHOST", Course: 1})
	skipped, err := store.ReplaceGroups(ctx, groups)
	if err != nil {
		t.Fatalf("ReplaceGroups: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	known := map[string]bool{}
	for _, f := range snap.Faculties {
		known[f.Code] = true
	}
	for _, g := range snap.Groups {
		if !known[g.FacultyCode] {
			t.Fatalf("group %s references missing faculty %s", g.Code, g.FacultyCode)
		}
	}
}

func TestGroupsWildcardCourse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedCatalog(t, store, sampleFaculties(), sampleGroups())

	for course := 1; course <= 6; course++ {
		groups, err := store.Groups(ctx, "FIT", schedule.FullTime, course)
		if err != nil {
			t.Fatalf("Groups: %v", err)
		}
		found := false
		for _, g := range groups {
			if g.Code == "ABC" {
				found = true
			}
			if g.Course != 0 && g.Course != course {
				t.Fatalf("course filter %d returned %s (course %d)", course, g.Code, g.Course)
			}
			if g.Form != schedule.FullTime {
				t.Fatalf("form filter returned %s (%s)", g.Code, g.Form)
			}
		}
		if !found {
			t.Fatalf("unresolved group missing for course %d", course)
		}
	}

	partTime, err := store.Groups(ctx, "FIT", schedule.PartTime, 0)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(partTime) != 1 || partTime[0].Code != "З-11" {
		t.Fatalf("unexpected part-time groups %#v", partTime)
	}
}

func TestReplaceLessonsScopesAndLaterWriteWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	week := []schedule.Lesson{
		{Day: 1, Pair: 1, Time: "08:30", Subject: "Math", Type: schedule.Lecture, Parity: schedule.Both},
		{Day: 1, Pair: 2, Time: "10:10", Subject: "Physics", Parity: schedule.Odd},
		{Day: 1, Pair: 2, Time: "10:10", Subject: "Chemistry", Parity: schedule.Even},
		{Day: 2, Pair: 1, Time: "08:30", Subject: "History", Parity: schedule.Both},
		{Day: 2, Pair: 1, Time: "08:30", Subject: "Philosophy", Parity: schedule.Both},
		{Day: 9, Pair: 1, Subject: "Invalid day"},
	}
	skipped, err := store.ReplaceLessons(ctx, "ИВТ-21", 0, schedule.AnyParity, week)
	if err != nil {
		t.Fatalf("ReplaceLessons: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}

	tuesday, err := store.Lessons(ctx, "ИВТ-21", 2, schedule.AnyParity)
	if err != nil {
		t.Fatalf("Lessons: %v", err)
	}
	if len(tuesday) != 1 || tuesday[0].Subject != "Philosophy" {
		t.Fatalf("expected later duplicate to win, got %#v", tuesday)
	}

	odd, err := store.Lessons(ctx, "ИВТ-21", 1, schedule.Odd)
	if err != nil {
		t.Fatalf("Lessons: %v", err)
	}
	if len(odd) != 2 || odd[0].Subject != "Math" || odd[1].Subject != "Physics" {
		t.Fatalf("unexpected odd-week monday %#v", odd)
	}
	if odd[0].ID == "" {
		t.Fatal("expected derived lesson id")
	}

	// Replacing Monday's even week keeps odd rows and Tuesday untouched.
	if _, err := store.ReplaceLessons(ctx, "ИВТ-21", 1, schedule.Even, []schedule.Lesson{
		{Day: 1, Pair: 3, Time: "12:00", Subject: "Biology", Parity: schedule.Even},
	}); err != nil {
		t.Fatalf("ReplaceLessons even: %v", err)
	}
	all, err := store.Lessons(ctx, "ИВТ-21", 0, schedule.AnyParity)
	if err != nil {
		t.Fatalf("Lessons: %v", err)
	}
	subjects := make([]string, 0, len(all))
	for _, l := range all {
		subjects = append(subjects, l.Subject)
	}
	want := []string{"Physics", "Biology", "Philosophy"}
	if !reflect.DeepEqual(subjects, want) {
		t.Fatalf("subjects = %v, want %v", subjects, want)
	}
}

func TestReplaceExamsAndKinds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exams := []schedule.Exam{
		{Subject: "Math", Date: "2026-01-12", Time: "09:00", Kind: schedule.KindExam},
		{Subject: "PE", Date: "2025-12-25", Kind: schedule.KindTest},
		{Subject: "", Date: "2026-01-01"},
	}
	skipped, err := store.ReplaceExams(ctx, "ИВТ-21", exams)
	if err != nil {
		t.Fatalf("ReplaceExams: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}

	tests, err := store.Exams(ctx, "ИВТ-21", schedule.KindTest)
	if err != nil {
		t.Fatalf("Exams: %v", err)
	}
	if len(tests) != 1 || tests[0].Subject != "PE" {
		t.Fatalf("unexpected tests %#v", tests)
	}
	all, err := store.Exams(ctx, "ИВТ-21", "")
	if err != nil {
		t.Fatalf("Exams: %v", err)
	}
	if len(all) != 2 || all[0].Subject != "PE" {
		t.Fatalf("expected date ordering, got %#v", all)
	}

	if _, err := store.ReplaceExams(ctx, "ИВТ-21", nil); err != nil {
		t.Fatalf("ReplaceExams empty: %v", err)
	}
	all, err = store.Exams(ctx, "ИВТ-21", "")
	if err != nil {
		t.Fatalf("Exams: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected exams cleared, got %d", len(all))
	}
}

func TestSyncStateAndDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	state, err := store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.LastSyncAt != nil || state.LastSource != "" {
		t.Fatalf("expected empty state, got %#v", state)
	}

	at := time.Date(2026, time.October, 17, 0, 5, 0, 0, time.UTC)
	if err := store.SetSyncState(ctx, at, "fallback"); err != nil {
		t.Fatalf("SetSyncState: %v", err)
	}
	state, err = store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.LastSyncAt == nil || !state.LastSyncAt.Equal(at) || state.LastSource != "fallback" {
		t.Fatalf("unexpected state %#v", state)
	}

	if stamp, err := store.ScheduleStamp(ctx, "ИВТ-21"); err != nil || stamp != nil {
		t.Fatalf("expected no stamp, got %v (%v)", stamp, err)
	}
	if err := store.SetScheduleStamp(ctx, "ИВТ-21", at); err != nil {
		t.Fatalf("SetScheduleStamp: %v", err)
	}
	if stamp, err := store.ScheduleStamp(ctx, "ИВТ-21"); err != nil || stamp == nil || !stamp.Equal(at) {
		t.Fatalf("unexpected stamp %v (%v)", stamp, err)
	}

	bells := []schedule.BellSlot{{Pair: 1, Start: "08:30", End: "10:00"}}
	if err := store.ReplaceBellSchedule(ctx, bells); err != nil {
		t.Fatalf("ReplaceBellSchedule: %v", err)
	}
	gotBells, ok, err := store.BellSchedule(ctx)
	if err != nil || !ok || !reflect.DeepEqual(gotBells, bells) {
		t.Fatalf("BellSchedule = %#v, %v, %v", gotBells, ok, err)
	}
	if _, ok, err := store.Departments(ctx); err != nil || ok {
		t.Fatalf("expected no departments, ok=%v err=%v", ok, err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedCatalog(t, store, sampleFaculties(), sampleGroups())
	if err := store.SetSyncState(ctx, time.Now(), "primary"); err != nil {
		t.Fatalf("SetSyncState: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats != (cache.Stats{}) {
		t.Fatalf("expected empty stats, got %#v", stats)
	}
	state, err := store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.LastSyncAt != nil {
		t.Fatal("expected sync state cleared")
	}
}

func TestReadersSeeCompleteCollections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedCatalog(t, store, sampleFaculties(), sampleGroups())

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			groups := sampleGroups()
			if i%2 == 1 {
				groups = groups[:2]
			}
			if _, err := store.ReplaceGroups(ctx, groups); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("writer: %v", err)
			}
			return
		default:
		}
		groups, err := store.Groups(ctx, "", "", 0)
		if err != nil {
			t.Fatalf("reader: %v", err)
		}
		if n := len(groups); n != 2 && n != 5 {
			t.Fatalf("reader observed a partial replacement: %d groups", n)
		}
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.SetFlag(context.Background(), "marker", "1"); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	store.Close()

	if err := cache.BumpSchemaVersionForTest(path); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if _, err := cache.OpenPath(path); !errors.Is(err, cache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestSnapshotDoesNotWaitForWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := store.ReplaceFaculties(context.Background(), sampleFaculties()); err != nil {
		t.Fatalf("ReplaceFaculties: %v", err)
	}

	release, err := cache.HoldWriteLockForTest(path)
	if err != nil {
		t.Fatalf("hold write lock: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot while a writer holds the lock: %v", err)
	}
	if len(snap.Faculties) != 2 {
		t.Fatalf("expected committed faculties, got %+v", snap.Faculties)
	}
}
