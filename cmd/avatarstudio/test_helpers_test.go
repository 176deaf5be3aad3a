package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeService struct {
	mu       sync.Mutex
	healthy  bool
	statuses []string
	calls    int
}

func (f *fakeService) setHealthy(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = v
}

type cliTestEnv struct {
	service    *fakeService
	server     *httptest.Server
	configPath string
	baseDir    string
	dataDir    string
	downloads  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("AVATARSTUDIO_API_URL", "")
	t.Setenv("AVATARSTUDIO_API_TOKEN", "")
	t.Setenv("NTFY_TOPIC", "")

	svc := &fakeService{
		healthy: true,
		statuses: []string{
			`{"id":42,"status":"pending","progress":0}`,
			`{"id":42,"status":"processing","progress":65}`,
			`{"id":42,"status":"completed","progress":100,"output_video_url":"/files/42.mp4"}`,
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		if !svc.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	})
	mux.HandleFunc("POST /api/v1/videos/generate", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":42,"status":"pending"}`)
	})
	mux.HandleFunc("GET /api/v1/videos/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		idx := min(svc.calls, len(svc.statuses)-1)
		svc.calls++
		_, _ = io.WriteString(w, svc.statuses[idx])
	})
	mux.HandleFunc("GET /files/42.mp4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "mp4")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	env := &cliTestEnv{
		service:    svc,
		server:     srv,
		configPath: filepath.Join(homeDir, ".config", "avatarstudio", "config.toml"),
		baseDir:    base,
		dataDir:    filepath.Join(base, "data"),
		downloads:  filepath.Join(base, "downloads"),
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
download_dir = %q

[service]
base_url = %q
api_token = "secret-token"

[polling]
interval_ms = 100

[logging]
level = "error"
`, env.dataDir, filepath.Join(env.dataDir, "logs"), env.downloads, env.server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, out, stderr)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// prepareProject fills every wizard step up to video.
func prepareProject(t *testing.T, env *cliTestEnv) {
	t.Helper()
	imagePath := filepath.Join(env.baseDir, "me.png")
	writePNG(t, imagePath)
	mustRunCLI(t, env, "avatar", "upload", imagePath)
	mustRunCLI(t, env, "script", "set", "Hi {{name}}, welcome to the launch event!", "--var", "name=team")
	mustRunCLI(t, env, "voice", "select", "onyx")
}
