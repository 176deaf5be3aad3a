package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if c.Avatar.MaxUploadBytes < 0 {
		return errors.New("avatar.max_upload_bytes must be positive")
	}
	return nil
}

func (c *Config) validateService() error {
	parsed, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", c.Service.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("service.base_url must include a host, got %q", c.Service.BaseURL)
	}
	if _, ok := validTiers[c.Service.Tier]; !ok {
		return fmt.Errorf("service.tier must be one of free, standard, premium (got %q)", c.Service.Tier)
	}
	if strings.ContainsAny(c.Service.Style, " \t\n") {
		return fmt.Errorf("service.style must be a single word, got %q", c.Service.Style)
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalMS < 100 {
		return errors.New("polling.interval_ms must be at least 100")
	}
	return nil
}
