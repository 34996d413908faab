package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on every API request.
	APIToken string `toml:"api_token"`
}

// Primary contains configuration for the structured schedule API.
type Primary struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// Fallback contains configuration for the scraped schedule website.
type Fallback struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// HTTP contains transport timeouts shared by both upstream clients.
// All values are seconds.
type HTTP struct {
	ConnectTimeout int    `toml:"connect_timeout"`
	ReadTimeout    int    `toml:"read_timeout"`
	RequestTimeout int    `toml:"request_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// Sync contains refresh policy settings.
type Sync struct {
	// Timezone is the IANA zone used for the weekly refresh anchor. Empty
	// means the process local zone.
	Timezone string `toml:"timezone"`
	// TrackedGroups are group codes whose lessons and exams are refreshed on
	// every full pass in addition to the faculty/group catalog.
	TrackedGroups []string `toml:"tracked_groups"`
	// PassTimeout bounds a single background sync pass (seconds).
	PassTimeout int `toml:"pass_timeout"`
}

// Notifications contains the optional ntfy push target for daemon events.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-timetable.
	// Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for timetable.
//
// Configuration sections by subsystem:
//   - Paths: cache/log directories and the daemon API bind address
//   - Primary: the structured JSON schedule API
//   - Fallback: the scraped schedule website
//   - HTTP: connect/read timeouts shared by both upstream clients
//   - Sync: refresh anchor time zone, tracked groups, pass timeout
//   - Notifications: ntfy topic for scheduled sync failures
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Primary  Primary  `toml:"primary"`
	Fallback Fallback `toml:"fallback"`
	HTTP     HTTP     `toml:"http"`
	Sync     Sync     `toml:"sync"`
	Logging  Logging  `toml:"logging"`

	Notifications Notifications `toml:"notifications"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPathString)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPathString)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("timetable.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheDBPath returns the SQLite cache database location.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.DataDir, defaultCacheDBName)
}

// DaemonLockPath returns the single-instance lock file used by timetabled.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, defaultDaemonLockName)
}

// DaemonLogPath returns the daemon log file location.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, defaultDaemonLogName)
}

// Location returns the time zone used for the weekly refresh anchor.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.Local
	}
	return c.location
}

// ConnectTimeout returns the dial timeout for upstream requests.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeout) * time.Second
}

// ReadTimeout returns the response header timeout for upstream requests.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeout) * time.Second
}

// RequestTimeout returns the total per-request timeout for upstream requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeout) * time.Second
}

// PassTimeout returns the upper bound for one background sync pass.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.Sync.PassTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleOverrides replaces selected values of the sample configuration.
// Empty fields keep the sample's value.
type SampleOverrides struct {
	PrimaryURL    string
	FallbackURL   string
	Timezone      string
	TrackedGroups []string
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	return CreateSampleWith(path, SampleOverrides{})
}

// CreateSampleWith writes the sample configuration with overrides applied,
// keeping its comments.
func CreateSampleWith(path string, overrides SampleOverrides) error {
	content, err := renderSample(overrides)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func renderSample(o SampleOverrides) (string, error) {
	values := map[string]map[string]any{}
	set := func(section, key string, value any) {
		if values[section] == nil {
			values[section] = map[string]any{}
		}
		values[section][key] = value
	}
	if v := strings.TrimSpace(o.PrimaryURL); v != "" {
		set("primary", "base_url", v)
	}
	if v := strings.TrimSpace(o.FallbackURL); v != "" {
		set("fallback", "base_url", v)
	}
	if v := strings.TrimSpace(o.Timezone); v != "" {
		set("sync", "timezone", v)
	}
	if len(o.TrackedGroups) > 0 {
		set("sync", "tracked_groups", o.TrackedGroups)
	}
	if len(values) == 0 {
		return sampleConfig, nil
	}

	lines := strings.Split(sampleConfig, "\n")
	section := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.Trim(trimmed, "[]")
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, _, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value, ok := values[section][key]
		if !ok {
			continue
		}
		encoded, err := toml.Marshal(map[string]any{key: value})
		if err != nil {
			return "", fmt.Errorf("encode %s.%s: %w", section, key, err)
		}
		lines[i] = strings.TrimSpace(string(encoded))
	}
	return strings.Join(lines, "\n"), nil
}
