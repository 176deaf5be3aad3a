package generation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"avatarstudio/internal/config"
	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/lifecycle"
	"avatarstudio/internal/logging"
	"avatarstudio/internal/notifications"
	"avatarstudio/internal/project"
	"avatarstudio/internal/store"
)

// PollFailureMessage is shown when the status of a running job could not be
// retrieved.
const PollFailureMessage = "Lost contact with the generation service while checking progress. Please try again."

// History records submitted jobs. *store.Store satisfies it.
type History interface {
	RecordJob(ctx context.Context, job store.Job) (*store.Job, error)
	UpdateJobProgress(ctx context.Context, id string, p project.GenerationProgress) error
	GetJob(ctx context.Context, id string) (*store.Job, error)
}

// Option customises a Controller.
type Option func(*Controller)

// WithHistory records submitted jobs and their progress.
func WithHistory(h History) Option {
	return func(c *Controller) { c.history = h }
}

// WithNotifier sends terminal outcomes to n.
func WithNotifier(n notifications.Service) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPollInterval overrides the wait between status queries.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

// WithDownloadDir sets the directory used by Download.
func WithDownloadDir(dir string) Option {
	return func(c *Controller) { c.downloadDir = dir }
}

// WithNow overrides the clock used to measure job duration.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller drives generation jobs for one project store.
type Controller struct {
	projects     *project.Store
	client       *jobclient.Client
	history      History
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration
	downloadDir  string
	now          func() time.Time

	// seq identifies the current job scope. Writes carrying an older value
	// are dropped.
	seq    atomic.Uint64
	mu     sync.Mutex
	active uint64
	cancel context.CancelFunc
}

var _ lifecycle.Actions = (*Controller)(nil)

// New constructs a controller around the project store and job client.
func New(projects *project.Store, client *jobclient.Client, opts ...Option) *Controller {
	c := &Controller{
		projects:     projects,
		client:       client,
		notifier:     notifications.NewService(nil),
		pollInterval: jobclient.DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "generation")
	return c
}

// NewFromConfig wires a controller with the configured poll interval,
// download directory and notifier.
func NewFromConfig(cfg *config.Config, projects *project.Store, client *jobclient.Client, opts ...Option) *Controller {
	base := []Option{
		WithPollInterval(cfg.PollInterval()),
		WithDownloadDir(cfg.Paths.DownloadDir),
		WithNotifier(notifications.NewService(cfg)),
	}
	return New(projects, client, append(base, opts...)...)
}

// Cancel abandons the active job scope. The poll loop stops before its next
// status query and the project moves to cancelled. The remote job is not
// contacted.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) beginScope(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	seq := c.seq.Add(1)
	c.active = seq
	c.cancel = cancel
	return jobCtx, seq
}

func (c *Controller) endScope(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == seq && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// invalidate cancels the active scope and makes any of its pending writes
// stale.
func (c *Controller) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = c.seq.Add(1)
}

var errSuperseded = errors.New("job scope superseded")

// apply mutates the project when seq still names the current scope. Writes
// outlive the job scope so a cancelled job can still record its outcome.
func (c *Controller) apply(ctx context.Context, seq uint64, mutate func(*project.ProjectState)) bool {
	_, err := c.projects.Update(context.WithoutCancel(ctx), func(p *project.ProjectState) error {
		if c.seq.Load() != seq {
			return errSuperseded
		}
		mutate(p)
		return nil
	})
	if errors.Is(err, errSuperseded) {
		c.logger.Debug("dropping result from superseded job")
		return false
	}
	// Persistence failures are logged by the store and keep the change.
	return true
}
