package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"avatarstudio/internal/config"
)

const userAgent = "avatarstudio/0.1.0"

// Service defines the notification surface used by the generation controller.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, jobID, videoURL string, elapsed time.Duration) error
	NotifyGenerationFailed(ctx context.Context, jobID, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		failed:    cfg.Notifications.Failed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failed    bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, jobID, videoURL string, elapsed time.Duration) error {
	if !n.completed {
		return nil
	}
	elapsed = max(elapsed.Round(time.Second), 0)
	message := fmt.Sprintf("Video ready (job %s) after %s", strings.TrimSpace(jobID), elapsed)
	if videoURL = strings.TrimSpace(videoURL); videoURL != "" {
		message += "\n" + videoURL
	}
	return n.send(ctx, payload{
		title:    "avatarstudio - Video Ready",
		message:  message,
		tags:     []string{"avatarstudio", "video", "completed"},
		priority: "high",
		click:    videoURL,
	})
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, jobID, message string) error {
	if !n.failed {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	return n.send(ctx, payload{
		title:    "avatarstudio - Generation Failed",
		message:  fmt.Sprintf("Job %s failed: %s", strings.TrimSpace(jobID), message),
		tags:     []string{"avatarstudio", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "avatarstudio - Test",
		message:  "Notification system test",
		tags:     []string{"avatarstudio", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyGenerationCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyGenerationFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
