package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/testsupport"
)

type recordingNotifier struct {
	mu        sync.Mutex
	failed    []string
	recovered []string
}

func (r *recordingNotifier) NotifySyncFailed(_ context.Context, code, _ string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, code)
	return nil
}

func (r *recordingNotifier) NotifySyncRecovered(_ context.Context, source string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recovered = append(r.recovered, source)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failed), len(r.recovered)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRefreshLoopNotifiesFailureStreakOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	primary := testsupport.NewFakeSource(sources.NamePrimary)
	notifier := &recordingNotifier{}
	d := newTestDaemon(t, cfg, primary, WithRetryInterval(20*time.Millisecond), WithNotifier(notifier))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Let several retries fail before the upstream comes back.
	waitUntil(t, 5*time.Second, func() bool { return primary.Calls(testsupport.OpFaculties) >= 3 })
	if failed, recovered := notifier.counts(); failed != 1 || recovered != 0 {
		t.Fatalf("after failures: failed=%d recovered=%d, want 1/0", failed, recovered)
	}

	primary.SetFaculties(result.Success([]schedule.Faculty{{Code: "FIT", Name: "Information Technology"}}))
	waitUntil(t, 5*time.Second, func() bool {
		_, recovered := notifier.counts()
		return recovered == 1
	})
	d.Stop()

	failed, recovered := notifier.counts()
	if failed != 1 || recovered != 1 {
		t.Fatalf("final counts: failed=%d recovered=%d, want 1/1", failed, recovered)
	}
	if notifier.recovered[0] != sources.NamePrimary {
		t.Fatalf("recovered via %q, want primary", notifier.recovered[0])
	}
}
