package jobclient

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// LivenessError reports that the service did not answer the health probe.
// No job was submitted.
type LivenessError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *LivenessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation service unreachable at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("generation service unhealthy at %s (http %d)", e.URL, e.StatusCode)
}

func (e *LivenessError) Unwrap() error { return e.Err }

// Remediation returns operator-facing instructions for restoring the service.
func (e *LivenessError) Remediation() string {
	return strings.Join([]string{
		"Start the generation API (for example: uvicorn app.main:app --port 8000)",
		"or point service.base_url / AVATARSTUDIO_API_URL at a running instance,",
		"then run `avatarstudio health` to confirm.",
	}, "\n")
}

// SubmissionError reports that a job could not be submitted. Error returns
// the server-provided detail verbatim.
type SubmissionError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("submission rejected (http %d)", e.StatusCode)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError reports a failed status query.
type PollError struct {
	JobID string
	Err   error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll job %s: %v", e.JobID, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// errorDetail extracts a human message from an error body. FastAPI style
// {"detail": "..."} and validation lists are unwrapped; anything else is
// returned trimmed.
func errorDetail(body string) string {
	trimmed := strings.TrimSpace(body)
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil || len(payload.Detail) == 0 {
		return trimmed
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if len(item.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
			} else {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(payload.Detail)
}
