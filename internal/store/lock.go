package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrGenerationLocked reports that another process holds the generation lock.
var ErrGenerationLocked = errors.New("another avatarstudio process is generating a video")

// GenerationLock serializes generations across processes sharing a data directory.
type GenerationLock struct {
	lock *flock.Flock
}

// AcquireGenerationLock takes the lock at path without blocking.
func AcquireGenerationLock(path string) (*GenerationLock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrGenerationLocked
	}
	return &GenerationLock{lock: lock}, nil
}

// Release frees the lock. It is safe to call on a nil lock.
func (l *GenerationLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
