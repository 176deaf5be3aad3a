package jobclient

import (
	"context"
	"strings"
	"time"

	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
)

// Stage thresholds on remote progress.
const (
	scriptThreshold = 30
	speechThreshold = 50
	renderThreshold = 90
)

var stageMessages = map[project.Stage]string{
	project.StageQueued:           "Waiting for a GPU worker",
	project.StageProcessingScript: "Processing script",
	project.StageGeneratingSpeech: "Generating speech",
	project.StageRenderingVideo:   "Rendering video",
	project.StageFinalizing:       "Finalizing video",
	project.StageDone:             "Video ready",
}

// StageMessage returns the default user-facing message for a stage.
func StageMessage(stage project.Stage) string {
	return stageMessages[stage]
}

// StageForProgress maps a processing progress value onto a local stage.
func StageForProgress(progress int) project.Stage {
	switch {
	case progress < scriptThreshold:
		return project.StageProcessingScript
	case progress < speechThreshold:
		return project.StageGeneratingSpeech
	case progress < renderThreshold:
		return project.StageRenderingVideo
	default:
		return project.StageFinalizing
	}
}

// MapStatus translates a remote status into local generation progress.
// Unknown remote statuses are treated as processing.
func MapStatus(resp StatusResponse) project.GenerationProgress {
	progress := min(max(resp.Progress, 0), 100)
	out := project.GenerationProgress{
		Progress: progress,
		Message:  strings.TrimSpace(resp.Message),
		JobID:    string(resp.ID),
	}

	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case RemotePending:
		out.Status = project.StatusProcessing
		out.Stage = project.StageQueued
	case RemoteCompleted:
		out.Status = project.StatusCompleted
		out.Stage = project.StageDone
		out.Progress = 100
		out.VideoURL = resp.OutputVideoURL
	case RemoteFailed:
		out.Status = project.StatusFailed
		out.Stage = StageForProgress(progress)
		out.Error = resp.ErrorMessage
	case RemoteCancelled:
		out.Status = project.StatusCancelled
		out.Stage = StageForProgress(progress)
	default:
		out.Status = project.StatusProcessing
		out.Stage = StageForProgress(progress)
	}
	if out.Message == "" {
		out.Message = StageMessage(out.Stage)
	}
	return out
}

// Poll queries the job status until it completes or fails, invoking
// onProgress with each mapped result and waiting interval between queries.
//
// ctx is the cancellation token. Once it is cancelled no further onProgress
// call is made, any in-flight result is discarded, and Poll returns the last
// known progress with status cancelled and a nil error. The remote job is
// not contacted. A failed query returns *PollError immediately.
func (c *Client) Poll(ctx context.Context, id string, onProgress func(project.GenerationProgress), interval time.Duration) (project.GenerationProgress, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, c.logger)

	last := project.GenerationProgress{Status: project.StatusProcessing, Stage: project.StageQueued, JobID: id}
	cancelled := func() project.GenerationProgress {
		out := last
		out.Status = project.StatusCancelled
		out.Message = "Generation cancelled"
		logger.Info("polling abandoned", logging.Int(logging.FieldProgress, out.Progress))
		return out
	}

	for {
		if ctx.Err() != nil {
			return cancelled(), nil
		}
		resp, err := c.Status(ctx, id)
		if ctx.Err() != nil {
			return cancelled(), nil
		}
		if err != nil {
			logger.Debug("status query failed", logging.Error(err))
			return project.GenerationProgress{}, &PollError{JobID: id, Err: err}
		}

		progress := MapStatus(resp)
		progress.JobID = id
		logger.Debug("job status",
			logging.String(logging.FieldStatus, resp.Status),
			logging.Int(logging.FieldProgress, progress.Progress),
		)
		if ctx.Err() != nil {
			return cancelled(), nil
		}
		last = progress
		if onProgress != nil {
			onProgress(progress)
		}
		if progress.Status.IsTerminal() {
			return progress, nil
		}
		if err := c.sleeper(ctx, interval); err != nil {
			return cancelled(), nil
		}
	}
}
