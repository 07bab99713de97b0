package jobstore

import (
	"strings"
	"time"

	"podscribe/internal/media/codec"
	"podscribe/internal/speech"
	"podscribe/internal/transcript"
)

// Status represents the lifecycle of a recorded job.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusSubmitted, StatusCompleted, StatusFailed}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether no further polling is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NewJob is the data recorded right after a successful submit.
type NewJob struct {
	EpisodeID    string
	SourcePath   string
	AudioURI     string
	LanguageCode string
	Encoding     codec.Variant
	SampleRateHz int
	Handle       speech.JobHandle
}

// Job is one persisted remote recognition job.
type Job struct {
	ID             int64            `json:"id"`
	EpisodeID      string           `json:"episode_id,omitempty"`
	SourcePath     string           `json:"source_path,omitempty"`
	AudioURI       string           `json:"audio_uri"`
	LanguageCode   string           `json:"language_code"`
	Encoding       codec.Variant    `json:"encoding"`
	SampleRateHz   int              `json:"sample_rate_hz"`
	Handle         speech.JobHandle `json:"handle"`
	Status         Status           `json:"status"`
	TranscriptJSON string           `json:"transcript_json,omitempty"`
	ErrorKind      string           `json:"error_kind,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	PollCount      int              `json:"poll_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	LastPolledAt   *time.Time       `json:"last_polled_at,omitempty"`
}

// Transcript decodes the stored transcript. It returns nil for jobs that have not completed.
func (j *Job) Transcript() (*transcript.Transcript, error) {
	if j == nil || j.TranscriptJSON == "" {
		return nil, nil
	}
	tr, err := transcript.Decode(j.TranscriptJSON)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}
