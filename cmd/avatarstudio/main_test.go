package main

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/services"
	"avatarstudio/internal/store"
	"avatarstudio/internal/testsupport"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	testsupport.WriteImage(t, path)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "config", "show")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked: %s", out)
	}
	requireContains(t, out, "********")
	requireContains(t, mustRunCLI(t, env, "config", "show", "--reveal"), "secret-token")
}

func TestVoiceListAndLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "voice", "list")
	requireContains(t, out, "shimmer")
	requireContains(t, out, "energetic")

	out = mustRunCLI(t, env, "avatar", "library")
	requireContains(t, out, "sarah")
	out = mustRunCLI(t, env, "avatar", "library", "maya")
	requireContains(t, out, "Avatar set to Maya")
}

func TestProjectStepsPersistAcrossInvocations(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "show")
	requireContains(t, out, "Step 1/5: Avatar")
	requireContains(t, out, "Next: choose an avatar")

	prepareProject(t, env)
	mustRunCLI(t, env, "video", "set", "--aspect", "16:9", "--subtitles", "--subtitle-language", "german")

	out = mustRunCLI(t, env, "show")
	requireContains(t, out, "me.png (upload)")
	requireContains(t, out, "Onyx (professional)")
	requireContains(t, out, "16:9, 1080p")
	requireContains(t, out, "yes (German, modern)")
	requireContains(t, out, "Step 4/5: Video")

	out = mustRunCLI(t, env, "script", "show", "--resolved")
	requireContains(t, out, "Hi team, welcome")
}

func TestValidationErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"script", "set", "too short"}, env.configPath); err == nil {
		t.Fatal("expected short script to be rejected")
	}
	if _, _, err := runCLI(t, []string{"voice", "select", "robot"}, env.configPath); err == nil {
		t.Fatal("expected unknown voice to be rejected")
	}
	if _, _, err := runCLI(t, []string{"video", "set", "--subtitle-language", "not a language"}, env.configPath); err == nil {
		t.Fatal("expected unknown subtitle language to be rejected")
	}
	if _, _, err := runCLI(t, []string{"video", "set", "--resolution", "8k"}, env.configPath); err == nil {
		t.Fatal("expected unknown resolution to be rejected")
	}
	if _, _, err := runCLI(t, []string{"voice", "settings", "--speed", "3"}, env.configPath); err == nil {
		t.Fatal("expected out of range speed to be rejected")
	}
	if _, _, err := runCLI(t, []string{"generate"}, env.configPath); err == nil {
		t.Fatal("expected generate to refuse an incomplete project")
	}
}

func TestStepCommandNavigatesWithAdvisoryGating(t *testing.T) {
	env := setupCLITestEnv(t)
	prepareProject(t, env)

	requireContains(t, mustRunCLI(t, env, "step", "2"), "Step 2/5: Script")
	requireContains(t, mustRunCLI(t, env, "show"), "Step 2/5: Script")
	requireContains(t, mustRunCLI(t, env, "step", "4"), "Step 4/5: Video")

	mustRunCLI(t, env, "avatar", "clear")
	out := mustRunCLI(t, env, "step", "3")
	requireContains(t, out, "Blocked: choose an avatar")
	requireContains(t, out, "Step 1/5: Avatar")

	for _, arg := range []string{"0", "5", "two"} {
		if _, _, err := runCLI(t, []string{"step", arg}, env.configPath); err == nil {
			t.Fatalf("expected step %s to be rejected", arg)
		}
	}
}

func TestGenerateFollowsJobAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	prepareProject(t, env)

	if _, _, err := runCLI(t, []string{"watch"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("watch without history: expected not found, got %v", err)
	}

	out := mustRunCLI(t, env, "generate", "--download")
	requireContains(t, out, "Video ready")
	requireContains(t, out, "Saved ")
	if _, err := os.Stat(filepath.Join(env.downloads, "avatarstudio-42.mp4")); err != nil {
		t.Fatalf("expected downloaded video: %v", err)
	}

	// the finished job is not restored, so the wizard starts over
	requireContains(t, mustRunCLI(t, env, "show"), "Step 1/5: Avatar")

	out = mustRunCLI(t, env, "watch")
	requireContains(t, out, "Watching job 42")
	requireContains(t, out, "Video ready")

	out = mustRunCLI(t, env, "jobs", "list")
	requireContains(t, out, "42")
	requireContains(t, out, "completed")

	out = mustRunCLI(t, env, "jobs", "show", "42")
	requireContains(t, out, "/files/42.mp4")

	out = mustRunCLI(t, env, "download", "42", "--dir", filepath.Join(env.baseDir, "elsewhere"))
	requireContains(t, out, "avatarstudio-42.mp4")

	out = mustRunCLI(t, env, "logs", "--job", "42", "--level", "info")
	requireContains(t, out, "generation started")
	requireContains(t, out, "job_id=42")

	out = mustRunCLI(t, env, "jobs", "clear")
	requireContains(t, out, "Removed 1 job(s)")
}

func TestGenerateReportsUnavailableService(t *testing.T) {
	env := setupCLITestEnv(t)
	prepareProject(t, env)
	env.service.setHealthy(false)

	out, _, err := runCLI(t, []string{"generate"}, env.configPath)
	var live *jobclient.LivenessError
	if !errors.As(err, &live) {
		t.Fatalf("expected liveness error, got %v", err)
	}
	requireContains(t, out, "Generation service unavailable")
	requireContains(t, out, "avatarstudio health")

	out = mustRunCLI(t, env, "show")
	requireContains(t, out, "Generation")
	requireContains(t, out, "idle")
}

func TestHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "health")
	requireContains(t, out, "[OK]")

	env.service.setHealthy(false)
	if _, _, err := runCLI(t, []string{"health"}, env.configPath); err == nil {
		t.Fatal("expected health to fail")
	}
}

func TestExportImportAndReset(t *testing.T) {
	env := setupCLITestEnv(t)
	prepareProject(t, env)

	exportPath := filepath.Join(env.baseDir, "project.yaml")
	mustRunCLI(t, env, "export", "--output", exportPath)

	out := mustRunCLI(t, env, "reset")
	requireContains(t, out, "Started new project")
	requireContains(t, mustRunCLI(t, env, "show"), "Step 1/5")

	out = mustRunCLI(t, env, "import", exportPath)
	requireContains(t, out, "Imported project")
	out = mustRunCLI(t, env, "show")
	requireContains(t, out, "Onyx")
	requireContains(t, out, "Step 4/5")
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "test-notify")
	requireContains(t, out, "Notifications are disabled")
}

func TestCorruptSavedProjectStartsFresh(t *testing.T) {
	env := setupCLITestEnv(t)
	prepareProject(t, env)

	db, err := sql.Open("sqlite", filepath.Join(env.dataDir, "studio.db"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE project_state SET payload = ? WHERE namespace = ?", "{not json", store.ProjectNamespace); err != nil {
		t.Fatalf("corrupt payload: %v", err)
	}
	db.Close()

	out := mustRunCLI(t, env, "show")
	requireContains(t, out, "Step 1/5: Avatar")

	out = mustRunCLI(t, env, "reset")
	requireContains(t, out, "Started new project")

	out = mustRunCLI(t, env, "logs", "--level", "warn")
	requireContains(t, out, "saved project unreadable")
	requireContains(t, out, "event_type=project_corrupt")
}

func TestFormatErrorPointsAtLogsForInternalFailures(t *testing.T) {
	userErr := services.Wrap(services.ErrValidation, "wizard", "step", "step must be between 1 and 4", nil)
	if got := formatError(userErr); strings.Contains(got, "avatarstudio logs") {
		t.Fatalf("user-facing error should not point at logs: %q", got)
	}
	internal := services.Wrap(services.ErrTransient, "store", "save", "disk full", nil)
	requireContains(t, formatError(internal), "avatarstudio logs --level error")
}
