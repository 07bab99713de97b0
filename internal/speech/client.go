package speech

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"podscribe/internal/language"
	"podscribe/internal/logging"
	"podscribe/internal/services"
	"podscribe/internal/transcript"
)

const component = "speech"

// Client submits and polls recognition jobs through a Recognizer.
type Client struct {
	recognizer Recognizer
	options    Options
	logger     *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithOptions overrides the recognition switches sent with each request.
func WithOptions(opts Options) ClientOption {
	return func(c *Client) {
		c.options = opts
	}
}

// NewClient wraps recognizer. A nil recognizer is a configuration defect.
func NewClient(recognizer Recognizer, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if recognizer == nil {
		return nil, services.Programming(component, "new client", "recognizer is required", nil)
	}
	c := &Client{
		recognizer: recognizer,
		options:    DefaultOptions(),
		logger:     logging.NewComponentLogger(logger, component),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BuildRequest validates the submission inputs and canonicalises the language tag.
func (c *Client) BuildRequest(audioURI string, stream StreamMetadata, languageCode string) (Request, error) {
	audioURI = strings.TrimSpace(audioURI)
	if audioURI == "" {
		return Request{}, services.Programming(component, "build request", "audio uri is required", nil)
	}
	if !stream.Codec.Supported() {
		return Request{}, services.Programming(component, "build request", fmt.Sprintf("codec %s has no remote encoding", stream.Codec), nil)
	}
	if stream.SampleRateHz <= 0 {
		return Request{}, services.Programming(component, "build request", fmt.Sprintf("invalid sample rate %d", stream.SampleRateHz), nil)
	}
	tag, err := language.Canonical(languageCode)
	if err != nil {
		return Request{}, services.Programming(component, "build request", "language "+languageCode, err)
	}
	return Request{
		AudioURI:     audioURI,
		Encoding:     stream.Codec,
		SampleRateHz: stream.SampleRateHz,
		ChannelCount: 1,
		LanguageCode: tag,
		Options:      c.options,
	}, nil
}

// Submit starts a recognition job for audio already uploaded to audioURI.
func (c *Client) Submit(ctx context.Context, audioURI string, stream StreamMetadata, languageCode string) (JobHandle, error) {
	req, err := c.BuildRequest(audioURI, stream, languageCode)
	if err != nil {
		return "", err
	}
	logger := logging.WithContext(ctx, c.logger)

	id, err := c.recognizer.Submit(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("submit %s: %w", req.AudioURI, ctxErr)
		}
		return "", services.Programming(component, "submit", req.AudioURI, err)
	}
	handle := JobHandle(id)
	if !handle.Valid() {
		return "", services.Programming(component, "submit", fmt.Sprintf("service returned malformed job id %q", id), nil)
	}
	logger.Info("transcription submitted",
		logging.String("handle", handle.String()),
		logging.String("audio_uri", req.AudioURI),
		logging.String("encoding", req.Encoding.Encoding()),
		logging.Int("sample_rate_hz", req.SampleRateHz),
		logging.String("language", req.LanguageCode),
	)
	return handle, nil
}

// Poll fetches the job's status. It returns (nil, nil) while the job is running.
func (c *Client) Poll(ctx context.Context, handle JobHandle) (*transcript.Transcript, error) {
	if !handle.Valid() {
		return nil, services.Programming(component, "poll", fmt.Sprintf("malformed handle %q", string(handle)), ErrUnknownJob)
	}
	logger := logging.WithContext(ctx, c.logger)

	status, err := c.recognizer.Status(ctx, handle.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("poll %s: %w", handle, ctxErr)
		}
		return nil, services.Programming(component, "poll", handle.String(), err)
	}
	if !status.Done {
		logger.Debug("transcription not done", logging.String("handle", handle.String()))
		return nil, nil
	}
	if status.Failure != nil {
		return nil, services.Programming(component, "poll", handle.String(), fmt.Errorf("%w: %w", ErrJobFailed, status.Failure))
	}
	result, err := Parse(status.Segments)
	if err != nil {
		return nil, services.Programming(component, "parse", handle.String(), err)
	}
	logger.Info("transcription complete",
		logging.String("handle", handle.String()),
		logging.Int("utterances", len(result.Utterances)),
	)
	return &result, nil
}

// Parse converts result segments into a transcript: one utterance per segment,
// alternatives in service order with whitespace trimmed. Confidence values are
// carried through unchanged; only non-finite values are rejected.
func Parse(segments []Segment) (transcript.Transcript, error) {
	out := transcript.Transcript{Utterances: make([]transcript.Utterance, 0, len(segments))}
	for i, seg := range segments {
		utterance := transcript.Utterance{
			LanguageCode: seg.LanguageCode,
			Alternatives: make([]transcript.Alternative, 0, len(seg.Alternatives)),
		}
		for j, alt := range seg.Alternatives {
			if math.IsNaN(alt.Confidence) || math.IsInf(alt.Confidence, 0) {
				return transcript.Transcript{}, fmt.Errorf("%w: segment %d alternative %d confidence %v", ErrMalformedResult, i, j, alt.Confidence)
			}
			utterance.Alternatives = append(utterance.Alternatives, transcript.Alternative{
				Text:       strings.TrimSpace(alt.Text),
				Confidence: alt.Confidence,
			})
		}
		out.Utterances = append(out.Utterances, utterance)
	}
	return out, nil
}
