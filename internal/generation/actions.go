package generation

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"avatarstudio/internal/fileutil"
	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
	"avatarstudio/internal/wizard"
)

// CreateAnother abandons any active job and resets the whole project,
// including a new project id.
func (c *Controller) CreateAnother(ctx context.Context) error {
	c.invalidate()
	state, err := c.projects.Reset(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("project reset", logging.String(logging.FieldProjectID, state.ProjectID))
	return nil
}

// EditAndRegenerate abandons any active job and returns to the video step
// with every selection kept.
func (c *Controller) EditAndRegenerate(ctx context.Context) error {
	c.invalidate()
	if err := c.projects.SetGeneration(ctx, project.IdleGeneration()); err != nil {
		return err
	}
	return c.projects.SetCurrentStep(ctx, wizard.StepVideo)
}

// Download saves the completed video into the configured download
// directory.
func (c *Controller) Download(ctx context.Context) error {
	_, err := c.DownloadTo(ctx, c.downloadDir)
	return err
}

// DownloadTo saves the completed video of the current project into dir and
// returns the written path.
func (c *Controller) DownloadTo(ctx context.Context, dir string) (string, error) {
	g := c.projects.Snapshot().Generation
	if g.Status != project.StatusCompleted || strings.TrimSpace(g.VideoURL) == "" {
		return "", services.Wrap(services.ErrValidation, "generation", "download", "no completed video to download", nil)
	}
	return c.save(ctx, g.JobID, g.VideoURL, dir)
}

// DownloadJob saves the video of a job from history into dir. When history
// has no video URL the remote job resource is consulted.
func (c *Controller) DownloadJob(ctx context.Context, jobID, dir string) (string, error) {
	videoURL := ""
	if c.history != nil {
		job, err := c.history.GetJob(ctx, jobID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return "", err
		}
		if job != nil {
			videoURL = job.VideoURL
		}
	}
	if videoURL == "" {
		remote, err := c.client.Get(ctx, jobID)
		if err != nil {
			return "", err
		}
		videoURL = remote.OutputVideoURL
	}
	if videoURL == "" {
		return "", services.Wrap(services.ErrValidation, "generation", "download", "job "+jobID+" has no video yet", nil)
	}
	return c.save(ctx, jobID, videoURL, dir)
}

func (c *Controller) save(ctx context.Context, jobID, videoURL, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "generation", "download", "download directory not configured", nil)
	}
	target := filepath.Join(dir, videoFileName(jobID, videoURL))
	res, err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
		_, err := c.client.DownloadVideo(ctx, videoURL, w)
		return err
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("video downloaded",
		logging.String(logging.FieldJobID, jobID),
		logging.String("path", res.Path),
		logging.Int64("bytes", res.Bytes),
		logging.String("sha256", res.SHA256),
	)
	return res.Path, nil
}

func videoFileName(jobID, videoURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(videoURL, "?", 2)[0]))
	if ext == "" || len(ext) > 5 {
		ext = ".mp4"
	}
	return "avatarstudio-" + fileToken(jobID) + ext
}

// fileToken keeps letters, digits, '-' and '_' from a remote job id so it
// cannot escape the download directory.
func fileToken(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "video"
	}
	return out
}
