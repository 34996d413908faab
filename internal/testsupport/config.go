package testsupport

import (
	"path/filepath"
	"testing"

	"timetable/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Both upstreams point at unroutable placeholders until overridden.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Primary.BaseURL = "http://127.0.0.1:1"
	cfgVal.Fallback.BaseURL = "http://127.0.0.1:1"
	cfgVal.Sync.Timezone = "UTC"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithPrimaryURL points the primary source at url (usually an httptest server).
func WithPrimaryURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Primary.BaseURL = url
	}
}

// WithFallbackURL points the fallback source at url.
func WithFallbackURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fallback.BaseURL = url
	}
}

// WithTrackedGroups sets the groups refreshed on every full pass.
func WithTrackedGroups(codes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.TrackedGroups = codes
	}
}

// WithTimezone overrides the refresh anchor zone.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.Timezone = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
