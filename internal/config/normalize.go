package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeService()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
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
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeService() {
	if value, ok := os.LookupEnv("AVATARSTUDIO_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.Service.BaseURL = value
	}
	c.Service.BaseURL = strings.TrimRight(strings.TrimSpace(c.Service.BaseURL), "/")
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = defaultServiceBaseURL
	}

	c.Service.APIPrefix = strings.TrimSpace(c.Service.APIPrefix)
	if c.Service.APIPrefix == "" {
		c.Service.APIPrefix = defaultAPIPrefix
	}
	if !strings.HasPrefix(c.Service.APIPrefix, "/") {
		c.Service.APIPrefix = "/" + c.Service.APIPrefix
	}
	c.Service.APIPrefix = strings.TrimRight(c.Service.APIPrefix, "/")

	c.Service.APIToken = strings.TrimSpace(c.Service.APIToken)
	if c.Service.APIToken == "" {
		if value, ok := os.LookupEnv("AVATARSTUDIO_API_TOKEN"); ok {
			c.Service.APIToken = strings.TrimSpace(value)
		}
	}

	if c.Service.RequestTimeoutSeconds <= 0 {
		c.Service.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Service.HealthTimeoutSeconds <= 0 {
		c.Service.HealthTimeoutSeconds = defaultHealthTimeoutSeconds
	}
	c.Service.Style = strings.ToLower(strings.TrimSpace(c.Service.Style))
	if c.Service.Style == "" {
		c.Service.Style = defaultStyle
	}
	c.Service.Tier = strings.ToLower(strings.TrimSpace(c.Service.Tier))
	if c.Service.Tier == "" {
		c.Service.Tier = defaultTier
	}
	if c.Polling.IntervalMS == 0 {
		c.Polling.IntervalMS = defaultPollIntervalMS
	}
	if c.Avatar.MaxUploadBytes == 0 {
		c.Avatar.MaxUploadBytes = defaultMaxUploadBytes
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
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
