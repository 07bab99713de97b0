package speech

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"podscribe/internal/media/codec"
)

var (
	// ErrUnknownJob indicates the service does not recognise a handle.
	ErrUnknownJob = errors.New("unknown transcription job")
	// ErrJobFailed indicates the service finished a job with an explicit failure.
	ErrJobFailed = errors.New("transcription job failed")
	// ErrMalformedResult indicates a finished job returned data that cannot be parsed.
	ErrMalformedResult = errors.New("malformed transcription result")
)

// JobHandle identifies one remote recognition job.
type JobHandle string

// Valid reports whether h is non-empty and free of whitespace and control characters.
func (h JobHandle) Valid() bool {
	if h == "" {
		return false
	}
	return strings.IndexFunc(string(h), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}

func (h JobHandle) String() string { return string(h) }

// StreamMetadata describes the audio being submitted.
type StreamMetadata struct {
	Codec        codec.Variant
	SampleRateHz int
}

// Options are the fixed recognition switches sent with every request.
type Options struct {
	EnableWordConfidence                bool
	EnableAutomaticPunctuation          bool
	UseEnhancedModel                    bool
	EnableSeparateRecognitionPerChannel bool
}

// DefaultOptions disables word confidence, enables punctuation and lets the
// service pick its best model.
func DefaultOptions() Options {
	return Options{
		EnableAutomaticPunctuation: true,
		UseEnhancedModel:           true,
	}
}

// Request is the fully validated submission handed to a Recognizer.
type Request struct {
	AudioURI     string
	Encoding     codec.Variant
	SampleRateHz int
	ChannelCount int
	LanguageCode string
	Options      Options
}

// Alternative is one hypothesis as reported by the service.
type Alternative struct {
	Text       string
	Confidence float64
}

// Segment is one result block of a finished job.
type Segment struct {
	Alternatives []Alternative
	LanguageCode string
}

// Status is the service's view of a job. Failure is set only when Done is
// true and the service reported an explicit error.
type Status struct {
	Done     bool
	Failure  error
	Segments []Segment
}

// RetryPolicy bounds the transport retry applied underneath a Recognizer.
type RetryPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Deadline   time.Duration
}

// DefaultRetryPolicy mirrors the [speech] configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Initial:    5 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2,
		Deadline:   10 * time.Minute,
	}
}

// Recognizer is the remote service boundary. Submit returns the job id.
// Status must wrap ErrUnknownJob for handles the service rejects.
type Recognizer interface {
	Submit(ctx context.Context, req Request) (string, error)
	Status(ctx context.Context, jobID string) (Status, error)
}
