package lifecycle

import (
	"sync"
	"time"

	"avatarstudio/internal/project"
)

// Clock counts local wall-clock time spent processing. It resets to zero on
// every transition into processing and freezes on any other status. It is
// feedback only and independent of remote progress.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	frozen  time.Duration
	running bool
}

// NewClock returns a clock reading time from now (time.Now when nil).
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Observe feeds the latest generation progress to the clock.
func (c *Clock) Observe(p project.GenerationProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	processing := p.Status == project.StatusProcessing
	switch {
	case processing && !c.running:
		c.started = c.now()
		c.frozen = 0
		c.running = true
	case !processing && c.running:
		c.frozen = c.now().Sub(c.started)
		c.running = false
	}
}

// Elapsed returns the time counted so far.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return c.now().Sub(c.started)
	}
	return c.frozen
}
