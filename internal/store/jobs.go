package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
)

// Job is one submitted generation recorded in local history.
type Job struct {
	ID           string
	ProjectID    string
	Status       project.Status
	Stage        project.Stage
	Progress     int
	Message      string
	VideoURL     string
	ErrorMessage string
	Prompt       string
	Emotion      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GenerationProgress converts the record to generation progress for display.
func (j Job) GenerationProgress() project.GenerationProgress {
	return project.GenerationProgress{
		Status:   j.Status,
		Progress: j.Progress,
		Stage:    j.Stage,
		Message:  j.Message,
		VideoURL: j.VideoURL,
		Error:    j.ErrorMessage,
		JobID:    j.ID,
	}
}

const jobColumns = "id, project_id, status, stage, progress, message, video_url, error_message, prompt, emotion, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job                                             Job
		status                                          string
		stage, message, videoURL, errMsg, prompt, emote sql.NullString
		createdRaw, updatedRaw                          sql.NullString
	)
	if err := scanner.Scan(
		&job.ID, &job.ProjectID, &status, &stage, &job.Progress, &message,
		&videoURL, &errMsg, &prompt, &emote, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = project.Status(status)
	job.Stage = project.Stage(stage.String)
	job.Message = message.String
	job.VideoURL = videoURL.String
	job.ErrorMessage = errMsg.String
	job.Prompt = prompt.String
	job.Emotion = emote.String
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	return &job, nil
}

// RecordJob inserts a newly submitted job.
func (s *Store) RecordJob(ctx context.Context, job Job) (*Job, error) {
	if job.ID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "record job", "job id required", nil)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if job.Status == "" {
		job.Status = project.StatusProcessing
	}
	if job.Stage == "" {
		job.Stage = project.StageQueued
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ProjectID, string(job.Status), string(job.Stage), job.Progress,
		nullableString(job.Message), nullableString(job.VideoURL), nullableString(job.ErrorMessage),
		nullableString(job.Prompt), nullableString(job.Emotion), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetJob(ctx, job.ID)
}

// UpdateJobProgress stores the latest progress for a job.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, p project.GenerationProgress) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, stage = ?, progress = ?, message = ?, video_url = COALESCE(?, video_url),
            error_message = ?, updated_at = ? WHERE id = ?`,
		string(p.Status), string(p.Stage), p.Progress, nullableString(p.Message),
		nullableString(p.VideoURL), nullableString(p.Error),
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update job", "job "+id+" not recorded", nil)
	}
	return nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get job", "job "+id+" not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs first. A non-positive limit returns all.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// LatestJob returns the most recently submitted job, if any.
func (s *Store) LatestJob(ctx context.Context) (*Job, error) {
	jobs, err := s.ListJobs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "latest job", "no jobs recorded", nil)
	}
	return jobs[0], nil
}

// DeleteJob removes a job from history.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete job", "job "+id+" not found", nil)
	}
	return nil
}

// ClearJobs removes every job from history and returns how many were removed.
func (s *Store) ClearJobs(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM jobs")
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
