package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestFanoutWritesEveryTargetAndJoinsErrors(t *testing.T) {
	errConsole := errors.New("console closed")
	errFile := errors.New("disk full")
	var healthy bytes.Buffer
	level := new(slog.LevelVar)

	handler := newFanoutHandler(
		newJSONHandler(failingWriter{err: errConsole}, level, false),
		newJSONHandler(&healthy, level, false),
		newJSONHandler(failingWriter{err: errFile}, level, false),
	)
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "generation started", 0)
	err := handler.Handle(context.Background(), record)
	if !errors.Is(err, errConsole) || !errors.Is(err, errFile) {
		t.Fatalf("expected both write errors, got %v", err)
	}
	if !strings.Contains(healthy.String(), "generation started") {
		t.Fatalf("healthy target missed the record: %q", healthy.String())
	}
}

func TestFanoutCollapsesSingleTarget(t *testing.T) {
	var buf bytes.Buffer
	only := newJSONHandler(&buf, new(slog.LevelVar), false)
	if got := newFanoutHandler(nil, only); got != only {
		t.Fatalf("expected the lone handler back, got %T", got)
	}
	if _, ok := newFanoutHandler().(NoopHandler); !ok {
		t.Fatal("expected a no-op handler without targets")
	}
}
