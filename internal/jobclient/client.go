package jobclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"avatarstudio/internal/logging"
	"avatarstudio/internal/services"
)

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultHealthTimeout = 5 * time.Second
	defaultAPIPrefix     = "/api/v1"
	defaultStyle         = "testimonial"
	defaultTier          = "standard"

	// DefaultPollInterval is used when Poll receives a non-positive interval.
	DefaultPollInterval = 3 * time.Second

	maxErrorBody = 64 * 1024
)

// Config captures the settings required to talk to the generation service.
type Config struct {
	BaseURL        string
	APIPrefix      string
	APIToken       string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	Style          string
	Tier           string
}

// Client wraps the generation service REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	sleeper    func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSleeper overrides how Poll waits between queries (useful for tests).
// The sleeper must return ctx.Err() once ctx is cancelled.
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// New constructs a client using the supplied configuration.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIPrefix = strings.TrimRight(strings.TrimSpace(cfg.APIPrefix), "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = defaultAPIPrefix
	}
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultHTTPTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaultHealthTimeout
	}
	if cfg.Style == "" {
		cfg.Style = defaultStyle
	}
	if cfg.Tier == "" {
		cfg.Tier = defaultTier
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		sleeper:    sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "jobclient")
	return client
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) apiURL(path string) string {
	return c.cfg.BaseURL + c.cfg.APIPrefix + path
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}
	rid, ok := services.RequestIDFromContext(ctx)
	if !ok {
		rid = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", rid)
	return req, nil
}

// doJSON performs req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
