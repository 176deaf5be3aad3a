package jobclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"avatarstudio/internal/services"
)

// Remote job statuses.
const (
	RemotePending    = "pending"
	RemoteProcessing = "processing"
	RemoteCompleted  = "completed"
	RemoteFailed     = "failed"
	RemoteCancelled  = "cancelled"
)

// JobID is an opaque job identifier. The service may encode it as a JSON
// number or string.
type JobID string

// UnmarshalJSON accepts numeric and string identifiers.
func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("job id: unsupported value %s", data)
	}
	*id = JobID(data)
	return nil
}

// JobHandle identifies a submitted job.
type JobHandle struct {
	ID     JobID  `json:"id"`
	Status string `json:"status"`
}

// StatusResponse is the body of GET {prefix}/videos/{id}/status.
type StatusResponse struct {
	ID             JobID  `json:"id"`
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	Message        string `json:"message,omitempty"`
	OutputVideoURL string `json:"output_video_url,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// Job is the full remote video resource.
type Job struct {
	ID                    JobID     `json:"id"`
	UserID                string    `json:"user_id"`
	Status                string    `json:"status"`
	ReferenceImageURL     string    `json:"reference_image_url"`
	Prompt                string    `json:"prompt"`
	OutputVideoURL        string    `json:"output_video_url,omitempty"`
	ThumbnailURL          string    `json:"thumbnail_url,omitempty"`
	Duration              float64   `json:"duration,omitempty"`
	ErrorMessage          string    `json:"error_message,omitempty"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (c *Client) videoURL(id, suffix string) string {
	return c.apiURL("/videos/" + url.PathEscape(id) + suffix)
}

// Status queries the current status of a job.
func (c *Client) Status(ctx context.Context, id string) (StatusResponse, error) {
	var out StatusResponse
	req, err := c.newRequest(ctx, http.MethodGet, c.videoURL(id, "/status"), nil)
	if err != nil {
		return out, err
	}
	if err := c.doJSON(req, &out); err != nil {
		return out, classify("status", id, err)
	}
	return out, nil
}

// Get fetches the full job resource.
func (c *Client) Get(ctx context.Context, id string) (Job, error) {
	var out Job
	req, err := c.newRequest(ctx, http.MethodGet, c.videoURL(id, ""), nil)
	if err != nil {
		return out, err
	}
	if err := c.doJSON(req, &out); err != nil {
		return out, classify("get", id, err)
	}
	return out, nil
}

// Delete removes a job and its artifacts from the service.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.videoURL(id, ""), nil)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, nil); err != nil {
		return classify("delete", id, err)
	}
	return nil
}

func classify(operation, id string, err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "jobclient", operation, "job "+id+" not found", nil)
		case statusErr.StatusCode >= 500:
			return services.Wrap(services.ErrTransient, "jobclient", operation, errorDetail(statusErr.Body), err)
		default:
			return services.Wrap(services.ErrRemote, "jobclient", operation, errorDetail(statusErr.Body), err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "jobclient", operation, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "jobclient", operation, "", err)
}
