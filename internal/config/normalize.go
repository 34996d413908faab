package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePrimary()
	c.normalizeFallback()
	c.normalizeHTTP()
	if err := c.normalizeSync(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

// Normalize applies defaults and path expansion to a config built in code
// (tests, embedding callers) rather than loaded from disk.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv(apiTokenEnv); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizePrimary() {
	if value, ok := os.LookupEnv(primaryBaseURLEnv); ok && strings.TrimSpace(value) != "" {
		c.Primary.BaseURL = value
	}
	c.Primary.BaseURL = strings.TrimRight(strings.TrimSpace(c.Primary.BaseURL), "/")
	c.Primary.APIKey = strings.TrimSpace(c.Primary.APIKey)
	if c.Primary.APIKey == "" {
		if value, ok := os.LookupEnv(primaryAPIKeyEnv); ok {
			c.Primary.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeFallback() {
	if value, ok := os.LookupEnv(fallbackBaseURLEnv); ok && strings.TrimSpace(value) != "" {
		c.Fallback.BaseURL = value
	}
	c.Fallback.BaseURL = strings.TrimRight(strings.TrimSpace(c.Fallback.BaseURL), "/")
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.ConnectTimeout <= 0 {
		c.HTTP.ConnectTimeout = defaultConnectTimeout
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = defaultReadTimeout
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = defaultRequestTimeout
	}
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeSync() error {
	if value, ok := os.LookupEnv(timezoneEnv); ok && strings.TrimSpace(c.Sync.Timezone) == "" {
		c.Sync.Timezone = value
	}
	c.Sync.Timezone = strings.TrimSpace(c.Sync.Timezone)
	if c.Sync.Timezone == "" {
		c.location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Sync.Timezone)
		if err != nil {
			return fmt.Errorf("sync.timezone: %w", err)
		}
		c.location = loc
	}

	if len(c.Sync.TrackedGroups) > 0 {
		groups := make([]string, 0, len(c.Sync.TrackedGroups))
		seen := make(map[string]struct{}, len(c.Sync.TrackedGroups))
		for _, code := range c.Sync.TrackedGroups {
			trimmed := strings.TrimSpace(code)
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			groups = append(groups, trimmed)
		}
		c.Sync.TrackedGroups = groups
	}

	if c.Sync.PassTimeout <= 0 {
		c.Sync.PassTimeout = defaultPassTimeout
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
