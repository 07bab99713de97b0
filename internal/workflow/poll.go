package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"podscribe/internal/jobstore"
	"podscribe/internal/logging"
	"podscribe/internal/notifications"
	"podscribe/internal/services"
	"podscribe/internal/speech"
	"podscribe/internal/transcript"
)

// PollSummary counts the outcome of one PollPending pass.
type PollSummary struct {
	Polled    int `json:"polled"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Poll checks one job and records the outcome. It returns a nil transcript
// while the job is still running. Handles missing from the store are polled
// but not recorded.
func (m *Manager) Poll(ctx context.Context, handle speech.JobHandle) (*transcript.Transcript, error) {
	if m.client == nil {
		return nil, services.Programming("workflow", "poll", "speech client is required", nil)
	}
	ctx = services.WithJobID(ctx, handle.String())
	logger := logging.WithContext(ctx, m.logger)

	tr, pollErr := m.client.Poll(ctx, handle)
	if pollErr != nil && ctx.Err() != nil {
		return nil, pollErr
	}
	if m.store == nil {
		return tr, pollErr
	}

	var recordErr error
	switch {
	case pollErr != nil:
		recordErr = m.store.MarkFailed(ctx, handle, pollErr)
	case tr == nil:
		recordErr = m.store.MarkPolled(ctx, handle)
	default:
		recordErr = m.store.MarkCompleted(ctx, handle, *tr)
	}
	if recordErr != nil {
		if !errors.Is(recordErr, jobstore.ErrNotFound) {
			logger.Warn("failed to record poll outcome", logging.Error(recordErr))
		}
		return tr, pollErr
	}
	switch {
	case pollErr != nil:
		m.publish(ctx, notifications.EventJobFailed, m.jobPayload(ctx, handle, notifications.Payload{"error": pollErr}))
	case tr != nil:
		words := len(strings.Fields(tr.Text()))
		m.publish(ctx, notifications.EventJobCompleted, m.jobPayload(ctx, handle, notifications.Payload{"words": words}))
	}
	return tr, pollErr
}

func (m *Manager) jobPayload(ctx context.Context, handle speech.JobHandle, payload notifications.Payload) notifications.Payload {
	payload["handle"] = handle
	if job, err := m.store.GetByHandle(ctx, handle); err == nil && job != nil {
		payload["episode"] = job.EpisodeID
	}
	return payload
}

// PollPending makes one pass over every submitted job. It fails fast with
// ErrPollInProgress when another process holds the poll lock.
func (m *Manager) PollPending(ctx context.Context) (PollSummary, error) {
	var summary PollSummary
	if m.store == nil || m.client == nil {
		return summary, services.Programming("workflow", "poll pending", "speech client and job store are required", nil)
	}
	locked, err := m.lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire poll lock: %w", err)
	}
	if !locked {
		return summary, ErrPollInProgress
	}
	defer func() {
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("failed to release poll lock", logging.Error(err))
		}
	}()

	jobs, err := m.store.List(ctx, jobstore.StatusSubmitted)
	if err != nil {
		return summary, err
	}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		tr, err := m.Poll(ctx, job.Handle)
		if err != nil && ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Polled++
		switch {
		case err != nil:
			summary.Failed++
			logging.WithContext(services.WithJobID(ctx, job.Handle.String()), m.logger).Error("job failed",
				logging.String("error_kind", string(services.KindOf(err))),
				logging.Error(err),
			)
		case tr == nil:
			summary.Pending++
		default:
			summary.Completed++
		}
	}
	m.publish(ctx, notifications.EventPollPassCompleted, notifications.Payload{
		"polled":    summary.Polled,
		"completed": summary.Completed,
		"failed":    summary.Failed,
	})
	m.logger.Info("poll pass complete",
		logging.Int("polled", summary.Polled),
		logging.Int("pending", summary.Pending),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Watch runs PollPending every interval until ctx is cancelled. There is no
// default cadence; interval must be positive. onPass, when set, receives each
// pass summary.
func (m *Manager) Watch(ctx context.Context, interval time.Duration, onPass func(PollSummary)) error {
	if interval <= 0 {
		return services.Programming("workflow", "watch", fmt.Sprintf("poll interval must be positive, got %s", interval), nil)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := m.PollPending(ctx)
		switch {
		case err == nil:
			if onPass != nil {
				onPass(summary)
			}
		case errors.Is(err, ErrPollInProgress):
			m.logger.Info("poll pass skipped; lock held elsewhere")
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
