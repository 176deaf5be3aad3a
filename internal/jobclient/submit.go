package jobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/goccy/go-json"

	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
)

// Parameters are the derived generation fields sent alongside the image.
type Parameters struct {
	TextInput   string
	Prompt      string
	Emotion     string
	Style       string
	Tier        string
	VoiceID     string
	Resolution  string
	AspectRatio string
}

// Parameters derives the submission fields for state.
func (c *Client) Parameters(state project.ProjectState) Parameters {
	tone, voiceID := "", ""
	if v := state.Voice.Selected; v != nil {
		tone, voiceID = v.Tone, v.ID
	}
	return Parameters{
		TextInput:   state.Script.Resolved(),
		Prompt:      BuildPrompt(state),
		Emotion:     EmotionForTone(tone),
		Style:       c.cfg.Style,
		Tier:        c.cfg.Tier,
		VoiceID:     voiceID,
		Resolution:  string(state.Video.Resolution),
		AspectRatio: string(state.Video.AspectRatio),
	}
}

// Submit probes liveness, then posts the project as a multipart generation
// request. A failed probe returns *LivenessError and nothing is sent; any
// later failure returns *SubmissionError.
func (c *Client) Submit(ctx context.Context, state project.ProjectState) (JobHandle, error) {
	if err := c.Health(ctx); err != nil {
		return JobHandle{}, err
	}

	img, err := c.avatarImage(ctx, state.Avatar)
	if err != nil {
		return JobHandle{}, &SubmissionError{Err: err}
	}
	params := c.Parameters(state)
	body, contentType, err := buildForm(img, params)
	if err != nil {
		return JobHandle{}, &SubmissionError{Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL("/videos/generate"), body)
	if err != nil {
		return JobHandle{}, &SubmissionError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("submitting generation job",
		logging.String("emotion", params.Emotion),
		logging.String("tier", params.Tier),
		logging.Int("image_bytes", len(img.Data)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobHandle{}, &SubmissionError{Err: fmt.Errorf("submit job: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return JobHandle{}, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := errorDetail(string(raw))
		if detail == "" {
			detail = fmt.Sprintf("submission rejected (http %d)", resp.StatusCode)
		}
		return JobHandle{}, &SubmissionError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var handle JobHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return JobHandle{}, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode job: %w", err)}
	}
	if handle.ID == "" {
		return JobHandle{}, &SubmissionError{StatusCode: resp.StatusCode, Detail: "service returned no job id"}
	}
	logger.Info("generation job submitted", logging.String(logging.FieldJobID, string(handle.ID)))
	return handle, nil
}

func buildForm(img imagePart, params Parameters) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="reference_image"; filename=%q`, img.Filename))
	header.Set("Content-Type", img.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"text_input", params.TextInput},
		{"prompt", params.Prompt},
		{"emotion", params.Emotion},
		{"style", params.Style},
		{"tier", params.Tier},
		{"voice_id", params.VoiceID},
		{"resolution", params.Resolution},
		{"aspect_ratio", params.AspectRatio},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
