package testsupport

import (
	"context"
	"testing"

	"timetable/internal/cache"
	"timetable/internal/config"
	"timetable/internal/schedule"
)

// MustOpenStore opens a cache.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCatalog writes faculties and groups into store, failing the test on error.
func SeedCatalog(t testing.TB, store *cache.Store, faculties []schedule.Faculty, groups []schedule.Group) {
	t.Helper()

	ctx := context.Background()
	if _, err := store.ReplaceFaculties(ctx, faculties); err != nil {
		t.Fatalf("ReplaceFaculties: %v", err)
	}
	if _, err := store.ReplaceGroups(ctx, groups); err != nil {
		t.Fatalf("ReplaceGroups: %v", err)
	}
}
