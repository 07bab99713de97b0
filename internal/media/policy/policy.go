// Package policy decides whether a probed file can be submitted for
// recognition as-is or must first be transcoded to a single mono stream.
package policy

import (
	"strings"

	"podscribe/internal/media/codec"
	"podscribe/internal/media/probe"
)

// Sample rate bounds accepted by the remote recognizer.
const (
	MinSampleRateHz      = 8000
	MaxSampleRateHz      = 48000
	FallbackSampleRateHz = 16000
)

// TargetCodec is the encoding produced whenever transcoding is required.
const TargetCodec = codec.FLAC

// Reason names one condition that forces a transcode.
type Reason string

const (
	ReasonMultiChannel     Reason = "multi_channel"
	ReasonUnsupportedCodec Reason = "unsupported_codec"
	ReasonMultipleStreams  Reason = "multiple_audio_streams"
	ReasonVideoStreams     Reason = "video_streams"
	ReasonSampleRate       Reason = "sample_rate_out_of_range"
	ReasonNoAudio          Reason = "no_audio"
)

// Decision is the outcome of Decide.
type Decision struct {
	Transcode bool          `json:"transcode"`
	Target    codec.Variant `json:"target"`
	// SampleRateHz is the resampling target, or 0 to keep the source rate.
	SampleRateHz int      `json:"sample_rate_hz,omitempty"`
	Reasons      []Reason `json:"reasons,omitempty"`
}

// Noop reports whether the source already qualifies.
func (d Decision) Noop() bool {
	return !d.Transcode
}

// String renders the decision for logs.
func (d Decision) String() string {
	if !d.Transcode {
		return "noop"
	}
	parts := make([]string, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		parts = append(parts, string(r))
	}
	return "transcode to " + d.Target.String() + " (" + strings.Join(parts, ",") + ")"
}

// Decide inspects the first audio stream of info and the overall stream layout.
func Decide(info probe.MediaFileInfo) Decision {
	first, ok := info.FirstAudio()
	if !ok {
		return Decision{Transcode: true, Target: TargetCodec, Reasons: []Reason{ReasonNoAudio}}
	}

	var reasons []Reason
	if first.Channels > 1 {
		reasons = append(reasons, ReasonMultiChannel)
	}
	if !first.Codec.Supported() {
		reasons = append(reasons, ReasonUnsupportedCodec)
	}
	if len(info.AudioStreams) > 1 {
		reasons = append(reasons, ReasonMultipleStreams)
	}
	if info.HasVideoStreams {
		reasons = append(reasons, ReasonVideoStreams)
	}
	rate := 0
	if first.SampleRateHz < MinSampleRateHz || first.SampleRateHz > MaxSampleRateHz {
		reasons = append(reasons, ReasonSampleRate)
		rate = FallbackSampleRateHz
	}
	if len(reasons) == 0 {
		return Decision{}
	}
	return Decision{Transcode: true, Target: TargetCodec, SampleRateHz: rate, Reasons: reasons}
}
