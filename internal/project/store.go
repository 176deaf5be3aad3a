package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"avatarstudio/internal/logging"
)

// Persister saves the durable subset and reports when it was written.
type Persister interface {
	SaveProject(ctx context.Context, d Durable) (time.Time, error)
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithPersister saves the durable subset after every mutating action.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// Store is the single source of truth for the project. Updates are applied
// to a private copy and swapped in whole, so readers never observe a
// partially applied change.
type Store struct {
	mu        sync.Mutex
	state     ProjectState
	persister Persister
	logger    *slog.Logger

	subMu       sync.Mutex
	subscribers map[int]func(ProjectState)
	nextSubID   int
}

// NewStore wraps an initial state.
func NewStore(initial ProjectState, opts ...StoreOption) *Store {
	s := &Store{state: initial.Clone(), subscribers: map[int]func(ProjectState){}}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "project")
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies mutate to a copy of the state and swaps it in when mutate
// succeeds. The new state is marked dirty, persisted when a Persister is
// configured, and delivered to subscribers. A persistence failure keeps the
// in-memory change and is returned to the caller.
func (s *Store) Update(ctx context.Context, mutate func(*ProjectState) error) (ProjectState, error) {
	s.mu.Lock()
	next := s.state.Clone()
	if err := mutate(&next); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	next.IsDirty = true

	var persistErr error
	if s.persister != nil {
		savedAt, err := s.persister.SaveProject(ctx, next.ToDurable())
		if err != nil {
			persistErr = fmt.Errorf("persist project: %w", err)
			logging.WarnWithContext(s.logger, "project save failed", "project_save_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes will be lost on restart"),
				logging.String(logging.FieldErrorHint, "check the data directory is writable"),
			)
		} else {
			next.IsDirty = false
			next.LastSaved = savedAt
		}
	}
	s.state = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	return snapshot, persistErr
}

// SetCurrentStep writes the step unconditionally. Gating is advisory; the
// effective step is re-derived at render time.
func (s *Store) SetCurrentStep(ctx context.Context, step int) error {
	_, err := s.Update(ctx, func(p *ProjectState) error {
		p.CurrentStep = step
		return nil
	})
	return err
}

// SetGeneration replaces the generation progress.
func (s *Store) SetGeneration(ctx context.Context, g GenerationProgress) error {
	_, err := s.Update(ctx, func(p *ProjectState) error {
		p.Generation = g
		return nil
	})
	return err
}

// Reset replaces the whole project with defaults and a new ProjectID.
func (s *Store) Reset(ctx context.Context) (ProjectState, error) {
	return s.Update(ctx, func(p *ProjectState) error {
		*p = New()
		return nil
	})
}

// Subscribe registers fn to receive every new snapshot. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(ProjectState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) publish(snapshot ProjectState) {
	s.subMu.Lock()
	fns := make([]func(ProjectState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snapshot.Clone())
	}
}
