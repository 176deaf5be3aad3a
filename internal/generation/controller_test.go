package generation_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"avatarstudio/internal/generation"
	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
	"avatarstudio/internal/store"
	"avatarstudio/internal/testsupport"
	"avatarstudio/internal/wizard"
)

type remote struct {
	mu       sync.Mutex
	healthy  bool
	submit   func(w http.ResponseWriter)
	statuses []string
	calls    int
	submits  int
}

func newRemote(t *testing.T) (*remote, *httptest.Server) {
	t.Helper()
	r := &remote{healthy: true}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	})
	mux.HandleFunc("POST /api/v1/videos/generate", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		r.submits++
		handler := r.submit
		r.mu.Unlock()
		if handler != nil {
			handler(w)
			return
		}
		_, _ = io.WriteString(w, `{"id": 42, "status": "pending"}`)
	})
	mux.HandleFunc("GET /api/v1/videos/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if len(r.statuses) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		idx := min(r.calls, len(r.statuses)-1)
		r.calls++
		_, _ = io.WriteString(w, r.statuses[idx])
	})
	mux.HandleFunc("GET /files/42.mp4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "video-bytes")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return r, srv
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifyGenerationCompleted(_ context.Context, jobID, _ string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, jobID)
	return nil
}

func (n *recordingNotifier) NotifyGenerationFailed(_ context.Context, _ string, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, message)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

type fixture struct {
	remote   *remote
	projects *project.Store
	history  *store.Store
	notifier *recordingNotifier
	ctrl     *generation.Controller
	dir      string
}

func instantSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func newFixture(t *testing.T, sleeper func(context.Context, time.Duration) error) *fixture {
	t.Helper()
	r, srv := newRemote(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURL(srv.URL))
	history := testsupport.MustOpenStore(t, cfg)

	avatarPath := filepath.Join(testsupport.BaseDir(cfg), "face.png")
	testsupport.WriteImage(t, avatarPath)
	upload, err := project.ValidateUpload(avatarPath, cfg.Avatar.MaxUploadBytes)
	if err != nil {
		t.Fatalf("ValidateUpload: %v", err)
	}
	state := project.New()
	state.Avatar = upload
	state.Script = project.Script{Text: "Welcome to the quarterly update for everyone."}
	voice, _ := project.LookupVoice("nova")
	state.Voice.Selected = &voice
	state.CurrentStep = wizard.StepVideo

	projects := project.NewStore(state)
	client := jobclient.New(jobclient.Config{BaseURL: srv.URL}, jobclient.WithSleeper(sleeper))
	notifier := &recordingNotifier{}
	ctrl := generation.NewFromConfig(cfg, projects, client,
		generation.WithHistory(history),
		generation.WithNotifier(notifier),
	)
	return &fixture{remote: r, projects: projects, history: history, notifier: notifier, ctrl: ctrl, dir: cfg.Paths.DownloadDir}
}

func (f *fixture) setStatuses(statuses ...string) {
	f.remote.mu.Lock()
	defer f.remote.mu.Unlock()
	f.remote.statuses = statuses
}

func TestStartFollowsJobToCompletion(t *testing.T) {
	f := newFixture(t, instantSleep)
	f.setStatuses(
		`{"id":42,"status":"pending","progress":0}`,
		`{"id":42,"status":"processing","progress":40}`,
		`{"id":42,"status":"completed","progress":100,"output_video_url":"/files/42.mp4"}`,
	)

	var (
		mu     sync.Mutex
		stages []project.Stage
	)
	unsubscribe := f.projects.Subscribe(func(s project.ProjectState) {
		mu.Lock()
		stages = append(stages, s.Generation.Stage)
		mu.Unlock()
	})
	defer unsubscribe()

	final, err := f.ctrl.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if final.Status != project.StatusCompleted || final.VideoURL != "/files/42.mp4" {
		t.Fatalf("unexpected final progress: %+v", final)
	}

	state := f.projects.Snapshot()
	if state.CurrentStep != wizard.StepGenerate || state.Generation.Status != project.StatusCompleted {
		t.Fatalf("unexpected state: step=%d gen=%+v", state.CurrentStep, state.Generation)
	}
	mu.Lock()
	seen := append([]project.Stage(nil), stages...)
	mu.Unlock()
	want := []project.Stage{project.StageQueued, project.StageGeneratingSpeech, project.StageDone}
	for _, stage := range want {
		found := false
		for _, got := range seen {
			if got == stage {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected stage %s in %v", stage, seen)
		}
	}

	job, err := f.history.GetJob(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != project.StatusCompleted || job.VideoURL != "/files/42.mp4" || job.Emotion != "excited" {
		t.Fatalf("unexpected history record: %+v", job)
	}
	if len(f.notifier.completed) != 1 || f.notifier.completed[0] != "42" {
		t.Fatalf("expected completion notification, got %v", f.notifier.completed)
	}

	path, err := f.ctrl.DownloadTo(context.Background(), f.dir)
	if err != nil {
		t.Fatalf("DownloadTo: %v", err)
	}
	if filepath.Base(path) != "avatarstudio-42.mp4" {
		t.Fatalf("unexpected download name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("unexpected download contents %q (%v)", data, err)
	}
}

func TestStartRejectsIncompleteProject(t *testing.T) {
	f := newFixture(t, instantSleep)
	if _, err := f.projects.Update(context.Background(), func(p *project.ProjectState) error {
		p.Voice.Selected = nil
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err := f.ctrl.Start(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.remote.submits != 0 {
		t.Fatalf("expected no submission, got %d", f.remote.submits)
	}
}

func TestStartLivenessFailureLeavesIdle(t *testing.T) {
	f := newFixture(t, instantSleep)
	f.remote.mu.Lock()
	f.remote.healthy = false
	f.remote.mu.Unlock()

	_, err := f.ctrl.Start(context.Background())
	var live *jobclient.LivenessError
	if !errors.As(err, &live) {
		t.Fatalf("expected LivenessError, got %v", err)
	}
	state := f.projects.Snapshot()
	if state.Generation.Status != project.StatusIdle || state.CurrentStep != wizard.StepVideo {
		t.Fatalf("expected idle on video step, got step=%d gen=%+v", state.CurrentStep, state.Generation)
	}
	if f.remote.submits != 0 {
		t.Fatalf("nothing should be submitted after a failed probe")
	}
	jobs, err := f.history.ListJobs(context.Background(), 10)
	if err != nil || len(jobs) != 0 {
		t.Fatalf("expected empty history, got %d (%v)", len(jobs), err)
	}
}

func TestStartSubmissionFailureSurfacesDetail(t *testing.T) {
	f := newFixture(t, instantSleep)
	f.remote.submit = func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Reference image must contain exactly one face"}`)
	}

	final, err := f.ctrl.Start(context.Background())
	if err == nil {
		t.Fatal("expected submission error")
	}
	if final.Status != project.StatusFailed || final.Error != "Reference image must contain exactly one face" {
		t.Fatalf("unexpected progress: %+v", final)
	}
	if got := f.projects.Snapshot().Generation.Error; got != final.Error {
		t.Fatalf("state error = %q", got)
	}
	if len(f.notifier.failed) != 1 {
		t.Fatalf("expected failure notification")
	}
}

func TestStartPollFailureUsesGenericMessage(t *testing.T) {
	f := newFixture(t, instantSleep)

	final, err := f.ctrl.Start(context.Background())
	var pollErr *jobclient.PollError
	if !errors.As(err, &pollErr) {
		t.Fatalf("expected PollError, got %v", err)
	}
	if final.Status != project.StatusFailed || final.Error != generation.PollFailureMessage || final.JobID != "42" {
		t.Fatalf("unexpected progress: %+v", final)
	}
}

func TestStartRemoteFailureKeepsErrorMessage(t *testing.T) {
	f := newFixture(t, instantSleep)
	f.setStatuses(`{"id":42,"status":"failed","progress":55,"error_message":"CUDA out of memory"}`)

	final, err := f.ctrl.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if final.Status != project.StatusFailed || final.Error != "CUDA out of memory" {
		t.Fatalf("unexpected progress: %+v", final)
	}
	if len(f.notifier.failed) != 1 || f.notifier.failed[0] != "CUDA out of memory" {
		t.Fatalf("unexpected failure notifications: %v", f.notifier.failed)
	}
}

// startInBackground runs Start and waits until the job id reaches state.
func startInBackground(t *testing.T, f *fixture) <-chan project.GenerationProgress {
	t.Helper()
	submitted := make(chan struct{})
	var once sync.Once
	unsubscribe := f.projects.Subscribe(func(s project.ProjectState) {
		if s.Generation.JobID == "42" {
			once.Do(func() { close(submitted) })
		}
	})
	t.Cleanup(unsubscribe)

	done := make(chan project.GenerationProgress, 1)
	go func() {
		final, _ := f.ctrl.Start(context.Background())
		done <- final
	}()
	select {
	case <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never submitted")
	}
	return done
}

func TestCancelAbandonsPolling(t *testing.T) {
	f := newFixture(t, blockingSleep)
	f.setStatuses(`{"id":42,"status":"processing","progress":20}`)

	done := startInBackground(t, f)
	f.ctrl.Cancel()

	select {
	case final := <-done:
		if final.Status != project.StatusCancelled {
			t.Fatalf("expected cancelled, got %+v", final)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Cancel")
	}
	if got := f.projects.Snapshot().Generation.Status; got != project.StatusCancelled {
		t.Fatalf("state status = %s", got)
	}
}

func TestSupersededJobNeverWritesState(t *testing.T) {
	f := newFixture(t, blockingSleep)
	f.setStatuses(`{"id":42,"status":"processing","progress":60}`)

	done := startInBackground(t, f)
	if err := f.ctrl.EditAndRegenerate(context.Background()); err != nil {
		t.Fatalf("EditAndRegenerate: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded Start did not return")
	}

	state := f.projects.Snapshot()
	if state.CurrentStep != wizard.StepVideo || state.Generation.Status != project.StatusIdle {
		t.Fatalf("superseded job leaked into state: step=%d gen=%+v", state.CurrentStep, state.Generation)
	}
	if state.Avatar == nil || state.Voice.Selected == nil {
		t.Fatal("edit and regenerate must keep selections")
	}
}

func TestCreateAnotherResetsProject(t *testing.T) {
	f := newFixture(t, instantSleep)
	before := f.projects.Snapshot().ProjectID
	if err := f.ctrl.CreateAnother(context.Background()); err != nil {
		t.Fatalf("CreateAnother: %v", err)
	}
	state := f.projects.Snapshot()
	if state.ProjectID == before || state.Avatar != nil || state.CurrentStep != wizard.StepAvatar {
		t.Fatalf("expected fresh project, got %+v", state)
	}
}

func TestDownloadRequiresCompletedVideo(t *testing.T) {
	f := newFixture(t, instantSleep)
	if err := f.ctrl.Download(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDownloadToStopsWhenCancelled(t *testing.T) {
	f := newFixture(t, instantSleep)
	f.setStatuses(`{"id":42,"status":"completed","progress":100,"output_video_url":"/files/42.mp4"}`)
	if _, err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.ctrl.DownloadTo(ctx, f.dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled download, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "avatarstudio-42.mp4")); !os.IsNotExist(err) {
		t.Fatalf("cancelled download left a file behind: %v", err)
	}
}

func TestWatchReattachesToKnownJob(t *testing.T) {
	f := newFixture(t, instantSleep)
	testsupport.RecordJob(t, f.history, "42", f.projects.Snapshot().ProjectID)
	f.setStatuses(`{"id":42,"status":"completed","progress":100,"output_video_url":"/files/42.mp4"}`)

	final, err := f.ctrl.Watch(context.Background(), "42")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if final.Status != project.StatusCompleted {
		t.Fatalf("unexpected final: %+v", final)
	}
	state := f.projects.Snapshot()
	if state.CurrentStep != wizard.StepGenerate || state.Generation.VideoURL != "/files/42.mp4" {
		t.Fatalf("unexpected state after watch: %+v", state.Generation)
	}

	path, err := f.ctrl.DownloadJob(context.Background(), "42", f.dir)
	if err != nil {
		t.Fatalf("DownloadJob: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
}
