package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"avatarstudio/internal/project"
)

// ProjectNamespace keys the single durable project record.
const ProjectNamespace = "avatarstudio.project"

// ErrCorruptProject marks a saved project payload that cannot be decoded.
var ErrCorruptProject = errors.New("saved project is corrupt")

// SaveProject writes the durable project subset and returns the save time.
func (s *Store) SaveProject(ctx context.Context, d project.Durable) (time.Time, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode project: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.execWithRetry(ctx,
		`INSERT INTO project_state (namespace, payload, saved_at) VALUES (?, ?, ?)
         ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		ProjectNamespace, string(payload), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("save project: %w", err)
	}
	return now, nil
}

// LoadProject reads the durable project record. The boolean is false when
// nothing has been saved yet. A payload that does not decode wraps
// ErrCorruptProject so the caller can decide to start fresh.
func (s *Store) LoadProject(ctx context.Context) (project.Durable, time.Time, bool, error) {
	var (
		payload string
		savedAt sql.NullString
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT payload, saved_at FROM project_state WHERE namespace = ?", ProjectNamespace,
	).Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Durable{}, time.Time{}, false, nil
	}
	if err != nil {
		return project.Durable{}, time.Time{}, false, fmt.Errorf("load project: %w", err)
	}
	var d project.Durable
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return project.Durable{}, time.Time{}, false, fmt.Errorf("%w: decode: %v", ErrCorruptProject, err)
	}
	return d, parseTime(savedAt), true, nil
}

// ClearProject removes the durable project record.
func (s *Store) ClearProject(ctx context.Context) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM project_state WHERE namespace = ?", ProjectNamespace); err != nil {
		return fmt.Errorf("clear project: %w", err)
	}
	return nil
}

// RestoreProject loads the durable record and rebuilds live state from it.
// Generation is always idle in the result.
func (s *Store) RestoreProject(ctx context.Context) (project.ProjectState, bool, error) {
	d, savedAt, ok, err := s.LoadProject(ctx)
	if err != nil || !ok {
		return project.New(), false, err
	}
	state := project.Restore(d)
	state.LastSaved = savedAt
	return state, true, nil
}
