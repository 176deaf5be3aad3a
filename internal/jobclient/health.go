package jobclient

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Health probes GET /health. The service is healthy when it answers 2xx
// and, if it reports a status, that status is "healthy" or "ok".
func (c *Client) Health(ctx context.Context) error {
	url := c.cfg.BaseURL + "/health"
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &LivenessError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &LivenessError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &LivenessError{URL: url, StatusCode: resp.StatusCode}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Status == "" {
		return nil
	}
	switch strings.ToLower(payload.Status) {
	case "healthy", "ok":
		return nil
	default:
		return &LivenessError{URL: url, StatusCode: resp.StatusCode}
	}
}
