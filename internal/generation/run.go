package generation

import (
	"context"
	"errors"
	"time"

	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
	"avatarstudio/internal/store"
	"avatarstudio/internal/wizard"
)

// Start submits the current project and follows the job until it completes,
// fails or is cancelled. It blocks for the life of the job; call Cancel from
// another goroutine (or cancel ctx) to abandon it.
//
// A failed liveness probe leaves generation idle on the video step and
// returns the *jobclient.LivenessError. A rejected submission marks the
// project failed with the server detail verbatim. A failed status query
// marks it failed with PollFailureMessage. The returned progress is the
// final state written by this call.
func (c *Controller) Start(ctx context.Context) (project.GenerationProgress, error) {
	state := c.projects.Snapshot()
	if !wizard.CanProceedToStep(state, wizard.StepGenerate) {
		return state.Generation, services.Wrap(services.ErrValidation, "generation", "start",
			wizard.Missing(state, wizard.StepGenerate), nil)
	}
	if err := project.ValidateScript(state.Script); err != nil {
		return state.Generation, err
	}
	if err := project.ValidateVideo(state.Video); err != nil {
		return state.Generation, err
	}

	jobCtx, seq := c.beginScope(services.WithProjectID(ctx, state.ProjectID))
	defer c.endScope(seq)
	logger := logging.WithContext(jobCtx, c.logger)

	queued := project.GenerationProgress{
		Status:  project.StatusProcessing,
		Stage:   project.StageQueued,
		Message: jobclient.StageMessage(project.StageQueued),
	}
	c.apply(jobCtx, seq, func(p *project.ProjectState) {
		p.CurrentStep = wizard.StepGenerate
		p.Generation = queued
	})

	handle, err := c.client.Submit(jobCtx, state)
	if err != nil {
		return c.submitFailed(jobCtx, seq, err)
	}
	jobID := string(handle.ID)
	started := c.now()
	logger.Info("generation started", logging.String(logging.FieldJobID, jobID))
	c.record(jobCtx, state, jobID)

	queued.JobID = jobID
	c.apply(jobCtx, seq, func(p *project.ProjectState) { p.Generation = queued })
	return c.follow(jobCtx, seq, jobID, started)
}

func (c *Controller) submitFailed(jobCtx context.Context, seq uint64, err error) (project.GenerationProgress, error) {
	if jobCtx.Err() != nil {
		out := project.GenerationProgress{
			Status:  project.StatusCancelled,
			Stage:   project.StageQueued,
			Message: "Generation cancelled",
		}
		c.apply(jobCtx, seq, func(p *project.ProjectState) { p.Generation = out })
		return out, nil
	}

	var live *jobclient.LivenessError
	if errors.As(err, &live) {
		logging.WarnWithContext(logging.WithContext(jobCtx, c.logger), "generation service unreachable", "service_unreachable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "start the generation API or fix service.base_url"),
			logging.String(logging.FieldImpact, "no job was submitted"),
		)
		out := project.IdleGeneration()
		c.apply(jobCtx, seq, func(p *project.ProjectState) {
			p.CurrentStep = wizard.StepVideo
			p.Generation = out
		})
		return out, err
	}

	out := project.GenerationProgress{
		Status:  project.StatusFailed,
		Stage:   project.StageQueued,
		Message: "Submission failed",
		Error:   err.Error(),
	}
	logging.ErrorWithContext(logging.WithContext(jobCtx, c.logger), "generation submission failed", "submission_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the server detail and the project selections"),
		logging.String(logging.FieldImpact, "no job was submitted"),
	)
	c.apply(jobCtx, seq, func(p *project.ProjectState) { p.Generation = out })
	c.notifyFailed(jobCtx, "", out.Error)
	return out, err
}

// Watch re-attaches to a job submitted earlier and follows it to a terminal
// status, exactly as Start does after submission. It is never called
// implicitly; reloaded projects always start idle.
func (c *Controller) Watch(ctx context.Context, jobID string) (project.GenerationProgress, error) {
	if jobID == "" {
		return project.GenerationProgress{}, services.Wrap(services.ErrValidation, "generation", "watch", "job id is required", nil)
	}
	state := c.projects.Snapshot()
	jobCtx, seq := c.beginScope(services.WithProjectID(ctx, state.ProjectID))
	defer c.endScope(seq)

	initial := project.GenerationProgress{
		Status:  project.StatusProcessing,
		Stage:   project.StageQueued,
		Message: jobclient.StageMessage(project.StageQueued),
		JobID:   jobID,
	}
	started := c.now()
	if c.history != nil {
		if job, err := c.history.GetJob(jobCtx, jobID); err == nil {
			initial = job.GenerationProgress()
			if !initial.Status.IsTerminal() {
				started = job.CreatedAt
			}
			initial.Status = project.StatusProcessing
			initial.VideoURL = ""
			initial.Error = ""
		} else if !errors.Is(err, services.ErrNotFound) {
			c.logger.Debug("job history lookup failed", logging.Error(err))
		}
	}
	c.apply(jobCtx, seq, func(p *project.ProjectState) {
		p.CurrentStep = wizard.StepGenerate
		p.Generation = initial
	})
	return c.follow(jobCtx, seq, jobID, started)
}

// follow polls jobID inside jobCtx and writes each result back while seq is
// current.
func (c *Controller) follow(jobCtx context.Context, seq uint64, jobID string, started time.Time) (project.GenerationProgress, error) {
	jobCtx = services.WithJobID(jobCtx, jobID)
	logger := logging.WithContext(jobCtx, c.logger)

	final, err := c.client.Poll(jobCtx, jobID, func(p project.GenerationProgress) {
		c.observe(jobCtx, seq, p)
	}, c.pollInterval)
	if err != nil {
		out := project.GenerationProgress{
			Status:  project.StatusFailed,
			Stage:   c.projects.Snapshot().Generation.Stage,
			Message: "Status check failed",
			Error:   PollFailureMessage,
			JobID:   jobID,
		}
		if out.Stage == "" {
			out.Stage = project.StageQueued
		}
		logging.ErrorWithContext(logger, "generation polling failed", "poll_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `avatarstudio watch` to re-attach once the service is reachable"),
			logging.String(logging.FieldImpact, "the job may still finish remotely"),
		)
		c.observe(jobCtx, seq, out)
		c.notifyFailed(jobCtx, jobID, out.Error)
		return out, err
	}

	switch final.Status {
	case project.StatusCancelled:
		c.observe(jobCtx, seq, final)
		logger.Info("generation cancelled", logging.Int(logging.FieldProgress, final.Progress))
	case project.StatusCompleted:
		elapsed := c.now().Sub(started)
		logger.Info("generation completed",
			logging.String("video_url", final.VideoURL),
			logging.Duration("elapsed", elapsed),
		)
		c.notifyCompleted(jobCtx, jobID, final.VideoURL, elapsed)
	case project.StatusFailed:
		logger.Warn("generation failed remotely",
			logging.String(logging.FieldEventType, "remote_failure"),
			logging.String(logging.FieldErrorHint, final.Error),
			logging.String(logging.FieldImpact, "no video was produced"),
		)
		c.notifyFailed(jobCtx, jobID, final.Error)
	}
	return final, nil
}

// observe writes p to the project when its scope is current and to the job
// history unconditionally.
func (c *Controller) observe(ctx context.Context, seq uint64, p project.GenerationProgress) {
	c.apply(ctx, seq, func(state *project.ProjectState) { state.Generation = p })
	if c.history == nil || p.JobID == "" {
		return
	}
	if err := c.history.UpdateJobProgress(context.WithoutCancel(ctx), p.JobID, p); err != nil {
		c.logger.Debug("job history update failed", logging.Error(err))
	}
}

func (c *Controller) record(ctx context.Context, state project.ProjectState, jobID string) {
	if c.history == nil {
		return
	}
	tone := ""
	if state.Voice.Selected != nil {
		tone = state.Voice.Selected.Tone
	}
	_, err := c.history.RecordJob(context.WithoutCancel(ctx), store.Job{
		ID:        jobID,
		ProjectID: state.ProjectID,
		Prompt:    jobclient.BuildPrompt(state),
		Emotion:   jobclient.EmotionForTone(tone),
	})
	if err != nil {
		logging.WarnWithContext(c.logger, "job history write failed", "job_history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data directory is writable"),
			logging.String(logging.FieldImpact, "the job will be missing from `jobs list`"),
		)
	}
}
