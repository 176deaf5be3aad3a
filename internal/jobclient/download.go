package jobclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"avatarstudio/internal/services"
)

// ResolveVideoURL makes a relative output URL absolute against the service
// root. Absolute URLs are returned unchanged.
func (c *Client) ResolveVideoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Wrap(services.ErrValidation, "jobclient", "download", "job has no video url", nil)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "jobclient", "download", "invalid video url", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(c.cfg.BaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// DownloadVideo streams the video at videoURL into w and returns the number
// of bytes written. The request timeout does not apply; ctx bounds the
// transfer instead.
func (c *Client) DownloadVideo(ctx context.Context, videoURL string, w io.Writer) (int64, error) {
	target, err := c.ResolveVideoURL(videoURL)
	if err != nil {
		return 0, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "video/*, */*")

	transfer := *c.httpClient
	transfer.Timeout = 0
	resp, err := transfer.Do(req)
	if err != nil {
		return 0, classify("download", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, classify("download", target, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download video: %w", err)
	}
	return n, nil
}
