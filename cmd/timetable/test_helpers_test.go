package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timetable/internal/config"
	"timetable/internal/daemon"
	"timetable/internal/engine"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
}

func scriptedPrimary() *testsupport.FakeSource {
	return testsupport.NewFakeSource(sources.NamePrimary).
		SetFaculties(result.Success([]schedule.Faculty{{Code: "FIT", Name: "Information Technology"}})).
		SetGroups("FIT", result.Success([]schedule.Group{
			{Code: "ИТ-1", Name: "ИТ-1", Course: 1},
			{Code: "ИТ-3", Name: "ИТ-3", Course: 3},
		})).
		SetSchedule("ИТ-1", result.Success(schedule.GroupSchedule{
			Lessons: []schedule.Lesson{
				{Day: 1, Pair: 1, Time: "08:30-10:00", Subject: "Algebra", Parity: schedule.Odd, Type: schedule.Lecture},
				{Day: 1, Pair: 2, Time: "10:10-11:40", Subject: "Physics", Parity: schedule.Even},
			},
			Exams: []schedule.Exam{
				{Subject: "Algebra", Date: "2027-01-12", Kind: schedule.KindExam},
				{Subject: "History", Date: "2026-12-25", Kind: schedule.KindTest},
			},
		})).
		SetBells(result.Success([]schedule.BellSlot{{Pair: 1, Start: "08:30", End: "10:00"}}))
}

// setupCLITestEnv starts a daemon on a loopback port and writes a config
// file pointing the CLI at it.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	e, err := engine.Open(cfg, nil, engine.WithSources(scriptedPrimary(), nil))
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}
	d, err := daemon.New(cfg, e, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})

	cfg.Paths.APIBind = d.APIAddress()
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, daemon: d, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = %q
api_token = %q

[primary]
enabled = %t
base_url = %q

[fallback]
enabled = %t
base_url = %q

[sync]
timezone = "UTC"

[notifications]
ntfy_topic = %q
`,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Paths.APIToken,
		cfg.Primary.Enabled,
		cfg.Primary.BaseURL,
		cfg.Fallback.Enabled,
		cfg.Fallback.BaseURL,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func requireNotContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Fatalf("expected output not to contain %q, got:\n%s", needle, haystack)
	}
}
