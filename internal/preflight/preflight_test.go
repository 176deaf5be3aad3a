package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avatarstudio/internal/config"
	"avatarstudio/internal/testsupport"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Health(context.Context) error { return f.err }
func (f fakePinger) BaseURL() string              { return "http://studio.test" }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", " "); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckService(t *testing.T) {
	ok := CheckService(context.Background(), fakePinger{})
	if !ok.Passed || ok.Detail != "http://studio.test" {
		t.Fatalf("unexpected result: %+v", ok)
	}

	down := CheckService(context.Background(), fakePinger{err: errors.New("connection refused")})
	if down.Passed || down.Detail != "connection refused" {
		t.Fatalf("unexpected result: %+v", down)
	}

	slow := CheckService(context.Background(), fakePinger{err: context.DeadlineExceeded})
	if slow.Passed || !strings.Contains(slow.Detail, "timed out") {
		t.Fatalf("unexpected result: %+v", slow)
	}
}

func TestCheckNotifications(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		completed  bool
		failed     bool
		wantPassed bool
		wantDetail string
	}{
		{"disabled", "", true, true, true, "Disabled"},
		{"both", "https://ntfy.sh/studio", true, true, true, "https://ntfy.sh/studio (completed, failed)"},
		{"failed only", "https://ntfy.sh/studio", false, true, true, "https://ntfy.sh/studio (failed)"},
		{"none", "https://ntfy.sh/studio", false, false, false, "https://ntfy.sh/studio (no events enabled)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = tt.topic
			cfg.Notifications.Completed = tt.completed
			cfg.Notifications.Failed = tt.failed
			got := CheckNotifications(&cfg)
			if got.Passed != tt.wantPassed || got.Detail != tt.wantDetail {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DownloadDir = ""
	cfg.Notifications.NtfyTopic = ""

	results := RunAll(context.Background(), &cfg, nil)
	// data + log + notifications
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesServiceAndDownloadDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DownloadDir = filepath.Join(t.TempDir(), "missing")

	results := RunAll(context.Background(), &cfg, fakePinger{err: errors.New("down")})
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if r, ok := byName["Download directory"]; !ok || r.Passed || !r.Optional {
		t.Fatalf("expected failing optional download dir check, got %+v", r)
	}
	if r, ok := byName["Generation service"]; !ok || r.Passed || r.Detail != "down" {
		t.Fatalf("expected failing service check, got %+v", r)
	}
}

func TestFailedIgnoresOptionalChecks(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Optional: true},
	}
	if Failed(results) {
		t.Fatal("optional failure should not fail the run")
	}
	results = append(results, Result{Name: "c"})
	if !Failed(results) {
		t.Fatal("required failure should fail the run")
	}
}

func TestRunAll_TestConfigWithNotifications(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.example/studio"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, fakePinger{})
	if Failed(results) {
		t.Fatalf("expected required checks to pass: %+v", results)
	}
	last := results[len(results)-1]
	if last.Name != "Notifications" || last.Detail != "https://ntfy.example/studio (completed, failed)" {
		t.Fatalf("unexpected notifications result: %+v", last)
	}
}
