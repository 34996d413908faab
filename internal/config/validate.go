package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" {
		if err := validateBaseURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	if !c.Primary.Enabled && !c.Fallback.Enabled {
		return errors.New("at least one of primary.enabled or fallback.enabled must be true")
	}
	if c.Primary.Enabled {
		if err := validateBaseURL("primary.base_url", c.Primary.BaseURL); err != nil {
			return err
		}
	}
	if c.Fallback.Enabled {
		if err := validateBaseURL("fallback.base_url", c.Fallback.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if err := ensurePositiveMap(map[string]int{
		"http.connect_timeout": c.HTTP.ConnectTimeout,
		"http.read_timeout":    c.HTTP.ReadTimeout,
		"http.request_timeout": c.HTTP.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.HTTP.RequestTimeout < c.HTTP.ReadTimeout {
		return errors.New("http.request_timeout must be greater than or equal to http.read_timeout")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.PassTimeout <= 0 {
		return errors.New("sync.pass_timeout must be positive")
	}
	if c.Sync.PassTimeout < c.HTTP.RequestTimeout {
		return errors.New("sync.pass_timeout must be greater than or equal to http.request_timeout")
	}
	return nil
}

func validateBaseURL(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", key)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
