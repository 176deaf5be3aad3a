package testsupport

import (
	"context"
	"testing"

	"avatarstudio/internal/config"
	"avatarstudio/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// RecordJob inserts a job into history for tests.
func RecordJob(t testing.TB, st *store.Store, id, projectID string) *store.Job {
	t.Helper()

	job, err := st.RecordJob(context.Background(), store.Job{ID: id, ProjectID: projectID, Prompt: "test prompt", Emotion: "neutral"})
	if err != nil {
		t.Fatalf("store.RecordJob: %v", err)
	}
	return job
}
