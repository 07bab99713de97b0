package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"podscribe/internal/media/codec"
	"podscribe/internal/services"
	"podscribe/internal/speech"
	"podscribe/internal/transcript"
)

var (
	// ErrNotFound indicates no job is recorded under the requested handle.
	ErrNotFound = errors.New("job not found")
	// ErrDuplicateHandle indicates the handle is already recorded.
	ErrDuplicateHandle = errors.New("job handle already recorded")
	// ErrAlreadyFinished indicates a terminal job was asked to transition again.
	ErrAlreadyFinished = errors.New("job already finished")
	// ErrNotRetryable indicates Requeue was asked to reopen a job that has not failed.
	ErrNotRetryable = errors.New("job is not failed")
)

const jobColumns = "id, episode_id, source_path, audio_uri, language_code, encoding, sample_rate_hz, handle, status, transcript_json, error_kind, error_message, poll_count, created_at, updated_at, last_polled_at"

// Record inserts a freshly submitted job.
func (s *Store) Record(ctx context.Context, job NewJob) (*Job, error) {
	if !job.Handle.Valid() {
		return nil, fmt.Errorf("record job: invalid handle %q", string(job.Handle))
	}
	if strings.TrimSpace(job.AudioURI) == "" {
		return nil, errors.New("record job: audio uri is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            episode_id, source_path, audio_uri, language_code, encoding, sample_rate_hz,
            handle, status, poll_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		nullableString(job.EpisodeID),
		nullableString(job.SourcePath),
		job.AudioURI,
		job.LanguageCode,
		job.Encoding.String(),
		job.SampleRateHz,
		job.Handle.String(),
		StatusSubmitted,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHandle, job.Handle)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by row identifier. It returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByHandle fetches a job by its remote handle. It returns nil when absent.
func (s *Store) GetByHandle(ctx context.Context, handle speech.JobHandle) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE handle = ?`, handle.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job by handle: %w", err)
	}
	return job, nil
}

// List returns jobs in insertion order, filtered to the given statuses when any are provided.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Stats returns the number of jobs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// MarkPolled records a poll that found the job still running.
func (s *Store) MarkPolled(ctx context.Context, handle speech.JobHandle) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(ctx, handle,
		`UPDATE jobs SET poll_count = poll_count + 1, last_polled_at = ?, updated_at = ?
         WHERE handle = ? AND status = ?`,
		now, now, handle.String(), StatusSubmitted,
	)
}

// MarkCompleted stores the transcript and closes the job.
func (s *Store) MarkCompleted(ctx context.Context, handle speech.JobHandle, tr transcript.Transcript) error {
	encoded, err := transcript.Encode(tr)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(ctx, handle,
		`UPDATE jobs SET status = ?, transcript_json = ?, error_kind = NULL, error_message = NULL,
             poll_count = poll_count + 1, last_polled_at = ?, updated_at = ?
         WHERE handle = ? AND status = ?`,
		StatusCompleted, encoded, now, now, handle.String(), StatusSubmitted,
	)
}

// MarkFailed records the error that ended the job.
func (s *Store) MarkFailed(ctx context.Context, handle speech.JobHandle, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.transition(ctx, handle,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?,
             poll_count = poll_count + 1, last_polled_at = ?, updated_at = ?
         WHERE handle = ? AND status = ?`,
		StatusFailed, string(services.KindOf(cause)), nullableString(message), now, now, handle.String(), StatusSubmitted,
	)
}

// Requeue moves a failed job back to submitted so the next poll picks it up
// again. The poll count is kept; the recorded error is cleared.
func (s *Store) Requeue(ctx context.Context, handle speech.JobHandle) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_kind = NULL, error_message = NULL, updated_at = ?
         WHERE handle = ? AND status = ?`,
		StatusSubmitted, time.Now().UTC().Format(time.RFC3339Nano), handle.String(), StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("requeue job %s: %w", handle, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	job, err := s.GetByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return fmt.Errorf("%w: %s is %s", ErrNotRetryable, handle, job.Status)
}

// transition runs an update guarded on the submitted status and reports
// ErrNotFound or ErrAlreadyFinished when no row changed.
func (s *Store) transition(ctx context.Context, handle speech.JobHandle, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", handle, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	job, err := s.GetByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return fmt.Errorf("%w: %s is %s", ErrAlreadyFinished, handle, job.Status)
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             int64
		episodeID      sql.NullString
		sourcePath     sql.NullString
		audioURI       string
		languageCode   string
		encoding       string
		sampleRate     int
		handle         string
		statusStr      string
		transcriptJSON sql.NullString
		errorKind      sql.NullString
		errorMessage   sql.NullString
		pollCount      int
		createdRaw     string
		updatedRaw     string
		lastPolledRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&episodeID,
		&sourcePath,
		&audioURI,
		&languageCode,
		&encoding,
		&sampleRate,
		&handle,
		&statusStr,
		&transcriptJSON,
		&errorKind,
		&errorMessage,
		&pollCount,
		&createdRaw,
		&updatedRaw,
		&lastPolledRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:             id,
		EpisodeID:      episodeID.String,
		SourcePath:     sourcePath.String,
		AudioURI:       audioURI,
		LanguageCode:   languageCode,
		Encoding:       codec.Parse(encoding),
		SampleRateHz:   sampleRate,
		Handle:         speech.JobHandle(handle),
		Status:         Status(statusStr),
		TranscriptJSON: transcriptJSON.String,
		ErrorKind:      errorKind.String,
		ErrorMessage:   errorMessage.String,
		PollCount:      pollCount,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if lastPolledRaw.Valid {
		if polled, err := parseTimeString(lastPolledRaw.String); err == nil {
			job.LastPolledAt = &polled
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
