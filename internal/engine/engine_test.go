package engine_test

import (
	"context"
	"testing"

	"timetable/internal/engine"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/telemetry"
	"timetable/internal/testsupport"
)

func TestOpenWiresFacadeToSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeSource(sources.NamePrimary).
		SetFaculties(result.Success([]schedule.Faculty{{Code: "FIT", Name: "Information Technology"}})).
		SetGroups("FIT", result.Success([]schedule.Group{{Code: "ИТ-1", Name: "ИТ-1"}}))

	e, err := engine.Open(cfg, nil, engine.WithSources(fake, nil), engine.WithMetrics(telemetry.New()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	env := e.Facade.ForceRefresh(context.Background())
	if !env.IsSuccess() {
		t.Fatalf("expected successful refresh, got %+v", env)
	}
	groups, err := e.Store.Groups(context.Background(), "FIT", "", 0)
	if err != nil || len(groups) != 1 || groups[0].Course != 1 {
		t.Fatalf("unexpected groups %+v (err %v)", groups, err)
	}
}

func TestSourcesRespectEnabledFlags(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fallback.Enabled = false

	primary, fallback, err := engine.Sources(cfg, nil)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if primary == nil || primary.Name() != sources.NamePrimary {
		t.Fatalf("expected primary source, got %v", primary)
	}
	if fallback != nil {
		t.Fatalf("expected disabled fallback to be nil, got %v", fallback)
	}
}
