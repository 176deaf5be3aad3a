package generation

import (
	"context"
	"errors"
	"time"

	"avatarstudio/internal/logging"
)

func (c *Controller) notifyCompleted(ctx context.Context, jobID, videoURL string, elapsed time.Duration) {
	err := c.notifier.NotifyGenerationCompleted(context.WithoutCancel(ctx), jobID, videoURL, elapsed)
	c.logNotifyError(err, "completion")
}

func (c *Controller) notifyFailed(ctx context.Context, jobID, message string) {
	err := c.notifier.NotifyGenerationFailed(context.WithoutCancel(ctx), jobID, message)
	c.logNotifyError(err, "failure")
}

func (c *Controller) logNotifyError(err error, kind string) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("shutting down, could not send " + kind + " notification")
		return
	}
	c.logger.Debug(kind+" notification failed", logging.Error(err))
}
