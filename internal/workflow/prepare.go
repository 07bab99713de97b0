package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"podscribe/internal/logging"
	"podscribe/internal/media/policy"
	"podscribe/internal/media/probe"
	"podscribe/internal/services"
)

// Prepared describes the audio file that should be uploaded for an episode.
type Prepared struct {
	Input      string                `json:"input"`
	AudioPath  string                `json:"audio_path"`
	Transcoded bool                  `json:"transcoded"`
	Reasons    []policy.Reason       `json:"reasons,omitempty"`
	Stream     probe.AudioStreamInfo `json:"stream"`
}

// PreparedPath returns where Prepare writes the normalized copy of input.
// The name carries a digest of the absolute input path so inputs sharing a
// base name in different directories never share an output.
func (m *Manager) PreparedPath(input string) string {
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = filepath.Clean(input)
	}
	sum := sha256.Sum256([]byte(abs))
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(m.cfg.Paths.WorkDir, stem+"-"+hex.EncodeToString(sum[:6])+".podscribe.flac")
}

// Prepare transcodes input into the work directory when the codec policy
// requires it and reports the stream that will be submitted.
func (m *Manager) Prepare(ctx context.Context, input string) (Prepared, error) {
	if m.transcoder == nil || m.prober == nil {
		return Prepared{}, services.Programming("workflow", "prepare", "media pipeline not configured", nil)
	}
	output := m.PreparedPath(input)
	result, err := m.transcoder.TranscodeIfNeeded(ctx, input, output)
	if err != nil {
		return Prepared{}, err
	}

	audio := result.AudioPath(input)
	info := result.Source
	if result.Transcoded {
		info, err = m.prober.Probe(ctx, audio)
		if err != nil {
			return Prepared{}, err
		}
	}
	stream, _ := info.FirstAudio()

	logging.WithContext(ctx, m.logger).Info("episode prepared",
		logging.String("input", input),
		logging.String("audio", audio),
		logging.Bool("transcoded", result.Transcoded),
		logging.String("codec", stream.Codec.String()),
		logging.Int("sample_rate_hz", stream.SampleRateHz),
	)
	return Prepared{
		Input:      input,
		AudioPath:  audio,
		Transcoded: result.Transcoded,
		Reasons:    result.Decision.Reasons,
		Stream:     stream,
	}, nil
}
