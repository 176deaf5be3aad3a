package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"avatarstudio/internal/logs"
)

const sampleLog = `{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"generation started","component":"generation","job_id":"job-1"}
{"ts":"2026-03-01T10:00:02Z","level":"debug","msg":"job status","job_id":"job-1","progress":40}
{"ts":"2026-03-01T10:00:03Z","level":"info","msg":"generation started","job_id":"job-2"}
not json at all
{"ts":"2026-03-01T10:00:09Z","level":"error","msg":"status poll failed","job_id":"job-1"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatarstudio.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func messages(entries []logs.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestTailLastEntries(t *testing.T) {
	path := writeLog(t, sampleLog)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	got := messages(result.Entries)
	if len(got) != 2 || got[0] != "not json at all" || got[1] != "status poll failed" {
		t.Fatalf("unexpected entries: %#v", got)
	}
	if result.Offset != int64(len(sampleLog)) {
		t.Fatalf("offset = %d, want %d", result.Offset, len(sampleLog))
	}
}

func TestTailFilters(t *testing.T) {
	path := writeLog(t, sampleLog)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{
		Offset: -1,
		Filter: logs.Filter{JobID: "job-1", MinLevel: "info"},
	})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	got := messages(result.Entries)
	if len(got) != 2 || got[0] != "generation started" || got[1] != "status poll failed" {
		t.Fatalf("unexpected entries: %#v", got)
	}
	if result.Entries[0].Component != "generation" || result.Entries[0].JobID() != "job-1" {
		t.Fatalf("unexpected first entry: %+v", result.Entries[0])
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "nope.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Entries) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTailWaitsForNewEntries(t *testing.T) {
	path := writeLog(t, `{"level":"info","msg":"start"}`+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		done <- res
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(`{"level":"warn","msg":"later"}` + "\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case res := <-done:
		if got := messages(res.Entries); len(got) != 1 || got[0] != "later" {
			t.Fatalf("unexpected follow entries: %#v", got)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestEntryFormat(t *testing.T) {
	e := logs.ParseEntry(`{"level":"warn","msg":"download failed","component":"generation","job_id":"j","attempt":2}`)
	got := e.Format()
	want := "WARN  [generation] download failed attempt=2 job_id=j"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
	if plain := logs.ParseEntry("raw text").Format(); !strings.Contains(plain, "raw text") {
		t.Fatalf("unexpected plain format %q", plain)
	}
}

func TestFollowEmitsUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatarstudio.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan logs.Entry, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, 0, logs.Filter{JobID: "j1"}, func(e logs.Entry) { got <- e })
	}()

	time.Sleep(100 * time.Millisecond)
	content := `{"level":"info","msg":"other","job_id":"j2"}` + "\n" + `{"level":"info","msg":"mine","job_id":"j1"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	select {
	case e := <-got:
		if e.Message != "mine" {
			t.Fatalf("unexpected entry %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop after cancel")
	}
}
