package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"avatarstudio/internal/config"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AVATARSTUDIO_API_URL", "")
	t.Setenv("AVATARSTUDIO_API_TOKEN", "")
	t.Setenv("NTFY_TOPIC", "")
}

func TestLoadDefaultConfigWhenFileMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	clearServiceEnv(t)

	cfg, path, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists to be false, got true (path=%s)", path)
	}
	if path != filepath.Join(tempHome, ".config", "avatarstudio", "config.toml") {
		t.Fatalf("unexpected default path %q", path)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "avatarstudio") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Service.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url: %q", cfg.Service.BaseURL)
	}
	if cfg.Service.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected api prefix: %q", cfg.Service.APIPrefix)
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.Service.Style != "testimonial" || cfg.Service.Tier != "standard" {
		t.Fatalf("unexpected style/tier: %q/%q", cfg.Service.Style, cfg.Service.Tier)
	}
	if cfg.Avatar.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("unexpected upload limit: %d", cfg.Avatar.MaxUploadBytes)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	clearServiceEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
data_dir = "~/studio"
download_dir = "~/clips"

[service]
base_url = "https://avatars.example.com/"
api_prefix = "api/v2/"
tier = "Premium"

[polling]
interval_ms = 500

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || path != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, path, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "studio") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.DownloadDir != filepath.Join(tempHome, "clips") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Service.BaseURL != "https://avatars.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Service.BaseURL)
	}
	if cfg.Service.APIPrefix != "/api/v2" {
		t.Fatalf("unexpected api prefix: %q", cfg.Service.APIPrefix)
	}
	if cfg.Service.Tier != "premium" {
		t.Fatalf("expected lowercase tier, got %q", cfg.Service.Tier)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	projectDir := t.TempDir()
	t.Chdir(projectDir)
	clearServiceEnv(t)

	content := "[service]\nstyle = \"corporate\"\n"
	if err := os.WriteFile(filepath.Join(projectDir, "avatarstudio.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(path) != "avatarstudio.toml" {
		t.Fatalf("expected project config, got %q (exists=%v)", path, exists)
	}
	if cfg.Service.Style != "corporate" {
		t.Fatalf("unexpected style: %q", cfg.Service.Style)
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("AVATARSTUDIO_API_URL", "https://gen.example.com/")
	t.Setenv("AVATARSTUDIO_API_TOKEN", " secret ")
	t.Setenv("NTFY_TOPIC", "https://ntfy.sh/avatars")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.BaseURL != "https://gen.example.com" {
		t.Fatalf("unexpected base url: %q", cfg.Service.BaseURL)
	}
	if cfg.Service.APIToken != "secret" {
		t.Fatalf("unexpected token: %q", cfg.Service.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/avatars" {
		t.Fatalf("unexpected ntfy topic: %q", cfg.Notifications.NtfyTopic)
	}
}

func TestDotEnvFileLoaded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	projectDir := t.TempDir()
	t.Chdir(projectDir)
	clearServiceEnv(t)
	os.Unsetenv("AVATARSTUDIO_API_TOKEN")

	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("AVATARSTUDIO_API_TOKEN=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.APIToken != "from-dotenv" {
		t.Fatalf("expected token from .env, got %q", cfg.Service.APIToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"scheme", func(c *config.Config) { c.Service.BaseURL = "ftp://host" }, "http or https"},
		{"host", func(c *config.Config) { c.Service.BaseURL = "http://" }, "host"},
		{"tier", func(c *config.Config) { c.Service.Tier = "gold" }, "service.tier"},
		{"poll", func(c *config.Config) { c.Polling.IntervalMS = 10 }, "polling.interval_ms"},
		{"upload", func(c *config.Config) { c.Avatar.MaxUploadBytes = -1 }, "max_upload_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	clearServiceEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Service.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected api prefix: %q", cfg.Service.APIPrefix)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if filepath.Dir(cfg.DatabasePath()) != cfg.Paths.DataDir {
		t.Fatalf("database path outside data dir: %s", cfg.DatabasePath())
	}
}
