package googlespeech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	speechapi "cloud.google.com/go/speech/apiv1p1beta1"
	"cloud.google.com/go/speech/apiv1p1beta1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"podscribe/internal/logging"
	"podscribe/internal/media/codec"
	"podscribe/internal/services"
	"podscribe/internal/speech"
)

const component = "googlespeech"

// Config selects credentials, endpoint and transport retry.
type Config struct {
	CredentialsFile string
	Endpoint        string
	Retry           speech.RetryPolicy
}

// retryableCodes are the transient statuses absorbed by the transport retry.
var retryableCodes = []codes.Code{
	codes.Unavailable,
	codes.ResourceExhausted,
	codes.Internal,
}

// encodings maps every supported codec variant to the API enum.
var encodings = map[codec.Variant]speechpb.RecognitionConfig_AudioEncoding{
	codec.LINEAR16: speechpb.RecognitionConfig_LINEAR16,
	codec.FLAC:     speechpb.RecognitionConfig_FLAC,
	codec.MULAW:    speechpb.RecognitionConfig_MULAW,
	codec.OggOpus:  speechpb.RecognitionConfig_OGG_OPUS,
	codec.MP3:      speechpb.RecognitionConfig_MP3,
}

type pollable interface {
	Poll(ctx context.Context, opts ...gax.CallOption) (*speechpb.LongRunningRecognizeResponse, error)
	Done() bool
}

type submitFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest, opts ...gax.CallOption) (string, error)

// Recognizer talks to Speech-to-Text. Close releases the gRPC connection.
type Recognizer struct {
	client    *speechapi.Client
	submit    submitFunc
	operation func(name string) pollable
	retry     speech.RetryPolicy
	logger    *slog.Logger
}

// New dials the Speech-to-Text API. Construction failures are programming errors.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Recognizer, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := speechapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, services.Programming(component, "new client", "create speech client", err)
	}
	r := newRecognizer(
		func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest, opts ...gax.CallOption) (string, error) {
			op, err := client.LongRunningRecognize(ctx, req, opts...)
			if err != nil {
				return "", err
			}
			return op.Name(), nil
		},
		func(name string) pollable { return client.LongRunningRecognizeOperation(name) },
		cfg.Retry,
		logger,
	)
	r.client = client
	return r, nil
}

func newRecognizer(submit submitFunc, operation func(string) pollable, retry speech.RetryPolicy, logger *slog.Logger) *Recognizer {
	if retry == (speech.RetryPolicy{}) {
		retry = speech.DefaultRetryPolicy()
	}
	return &Recognizer{
		submit:    submit,
		operation: operation,
		retry:     retry,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

// Close releases the underlying client.
func (r *Recognizer) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Submit starts a LongRunningRecognize operation and returns its name.
func (r *Recognizer) Submit(ctx context.Context, req speech.Request) (string, error) {
	pbReq, err := BuildRequest(req)
	if err != nil {
		return "", err
	}
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	name, err := r.submit(ctx, pbReq, r.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("long running recognize: %w", err)
	}
	return name, nil
}

// Status polls the named operation once.
func (r *Recognizer) Status(ctx context.Context, jobID string) (speech.Status, error) {
	op := r.operation(jobID)
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	resp, err := op.Poll(ctx, r.callOptions()...)
	if err != nil {
		if op.Done() {
			// The operation finished and carries an error status.
			return speech.Status{Done: true, Failure: err}, nil
		}
		return speech.Status{}, classifyPollError(jobID, err)
	}
	if !op.Done() {
		return speech.Status{}, nil
	}
	if resp == nil {
		return speech.Status{}, fmt.Errorf("%w: operation %s finished without a response", speech.ErrMalformedResult, jobID)
	}
	logging.WithContext(ctx, r.logger).Debug("operation finished",
		logging.String("operation", jobID),
		logging.Int("results", len(resp.GetResults())),
	)
	return speech.Status{Done: true, Segments: Segments(resp)}, nil
}

// BuildRequest converts a validated speech.Request into the API message.
func BuildRequest(req speech.Request) (*speechpb.LongRunningRecognizeRequest, error) {
	encoding, ok := encodings[req.Encoding]
	if !ok {
		return nil, services.Programming(component, "build request", "no encoding for codec "+req.Encoding.String(), nil)
	}
	return &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                            encoding,
			SampleRateHertz:                     int32(req.SampleRateHz), //nolint:gosec
			AudioChannelCount:                   int32(req.ChannelCount), //nolint:gosec
			EnableSeparateRecognitionPerChannel: req.Options.EnableSeparateRecognitionPerChannel,
			LanguageCode:                        req.LanguageCode,
			EnableWordConfidence:                req.Options.EnableWordConfidence,
			EnableAutomaticPunctuation:          req.Options.EnableAutomaticPunctuation,
			UseEnhanced:                         req.Options.UseEnhancedModel,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.AudioURI},
		},
	}, nil
}

// Segments flattens the API response into service-ordered segments.
func Segments(resp *speechpb.LongRunningRecognizeResponse) []speech.Segment {
	results := resp.GetResults()
	segments := make([]speech.Segment, 0, len(results))
	for _, result := range results {
		alternatives := make([]speech.Alternative, 0, len(result.GetAlternatives()))
		for _, alt := range result.GetAlternatives() {
			alternatives = append(alternatives, speech.Alternative{
				Text:       alt.GetTranscript(),
				Confidence: float64(alt.GetConfidence()),
			})
		}
		segments = append(segments, speech.Segment{
			Alternatives: alternatives,
			LanguageCode: result.GetLanguageCode(),
		})
	}
	return segments
}

func classifyPollError(jobID string, err error) error {
	switch status.Code(err) {
	case codes.NotFound, codes.InvalidArgument:
		return fmt.Errorf("%w: operation %s: %w", speech.ErrUnknownJob, jobID, err)
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("poll operation %s: retry deadline exhausted: %w", jobID, err)
		}
		return fmt.Errorf("poll operation %s: %w", jobID, err)
	}
}

func (r *Recognizer) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.retry.Deadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.retry.Deadline)
}

func (r *Recognizer) callOptions() []gax.CallOption {
	backoff := gax.Backoff{
		Initial:    r.retry.Initial,
		Max:        r.retry.Max,
		Multiplier: r.retry.Multiplier,
	}
	return []gax.CallOption{
		gax.WithRetry(func() gax.Retryer {
			return gax.OnCodes(retryableCodes, backoff)
		}),
	}
}
