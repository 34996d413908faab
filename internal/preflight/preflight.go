package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"timetable/internal/config"
	"timetable/internal/sources/httpx"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config. The
// upstream checks run concurrently; results keep a fixed order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCache(ctx, cfg.CacheDBPath()),
	}

	client := httpx.NewClient(httpx.OptionsFromConfig(cfg))
	upstreams := []struct {
		name    string
		enabled bool
		baseURL string
		apiKey  string
	}{
		{"Primary API", cfg.Primary.Enabled, cfg.Primary.BaseURL, cfg.Primary.APIKey},
		{"Fallback website", cfg.Fallback.Enabled, cfg.Fallback.BaseURL, ""},
	}
	remote := make([]Result, len(upstreams))
	var g errgroup.Group
	for i, u := range upstreams {
		if !u.enabled {
			remote[i] = Result{Name: u.name, Passed: true, Skipped: true, Detail: "Disabled"}
			continue
		}
		g.Go(func() error {
			remote[i] = CheckUpstream(ctx, client, u.name, u.baseURL, u.apiKey, cfg.HTTP.UserAgent)
			return nil
		})
	}
	_ = g.Wait()
	return append(results, remote...)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
