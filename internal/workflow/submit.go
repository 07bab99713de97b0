package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"podscribe/internal/jobstore"
	"podscribe/internal/logging"
	"podscribe/internal/media/policy"
	"podscribe/internal/notifications"
	"podscribe/internal/services"
	"podscribe/internal/speech"
)

// SubmitRequest identifies local audio already uploaded to AudioURI.
type SubmitRequest struct {
	AudioPath    string
	AudioURI     string
	LanguageCode string
	EpisodeID    string
}

// Submit probes the local copy of the uploaded audio, starts a remote job and
// records its handle.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*jobstore.Job, error) {
	if m.client == nil || m.store == nil || m.prober == nil {
		return nil, services.Programming("workflow", "submit", "speech client and job store are required", nil)
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	if episode := strings.TrimSpace(req.EpisodeID); episode != "" {
		ctx = services.WithEpisodeID(ctx, episode)
	}
	info, err := m.prober.Probe(ctx, req.AudioPath)
	if err != nil {
		return nil, err
	}
	if decision := policy.Decide(info); !decision.Noop() {
		return nil, services.Programming("workflow", "submit",
			fmt.Sprintf("%s must be prepared first: %s", req.AudioPath, decision), nil)
	}
	stream, _ := info.FirstAudio()

	languageCode := strings.TrimSpace(req.LanguageCode)
	if languageCode == "" {
		languageCode = m.cfg.Speech.DefaultLanguage
	}
	meta := speech.StreamMetadata{Codec: stream.Codec, SampleRateHz: stream.SampleRateHz}
	request, err := m.client.BuildRequest(req.AudioURI, meta, languageCode)
	if err != nil {
		return nil, err
	}
	handle, err := m.client.Submit(ctx, request.AudioURI, meta, request.LanguageCode)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, handle.String())
	logger := logging.WithContext(ctx, m.logger)

	job, err := m.store.Record(ctx, jobstore.NewJob{
		EpisodeID:    strings.TrimSpace(req.EpisodeID),
		SourcePath:   req.AudioPath,
		AudioURI:     request.AudioURI,
		LanguageCode: request.LanguageCode,
		Encoding:     stream.Codec,
		SampleRateHz: stream.SampleRateHz,
		Handle:       handle,
	})
	if err != nil {
		logger.Error("job submitted but not recorded; poll it by handle",
			logging.String("handle", handle.String()),
			logging.Error(err),
		)
		return nil, fmt.Errorf("record job %s: %w", handle, err)
	}
	logger.Info("job recorded", logging.Int64("job", job.ID))
	m.publish(ctx, notifications.EventJobSubmitted, notifications.Payload{
		"handle":  job.Handle,
		"episode": job.EpisodeID,
	})
	return job, nil
}
