package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"

	"podscribe/internal/logging"
	"podscribe/internal/media/codec"
	"podscribe/internal/media/ffprobe"
	"podscribe/internal/services"
)

// ErrNoAudio indicates the container holds no audio stream with a positive duration.
var ErrNoAudio = errors.New("no audio streams")

// AudioStreamInfo describes one usable audio stream.
type AudioStreamInfo struct {
	Index           int           `json:"index"`
	DurationSeconds float64       `json:"duration_seconds"`
	SampleRateHz    int           `json:"sample_rate_hz"`
	Channels        int           `json:"channels"`
	CodecName       string        `json:"codec_name"`
	Codec           codec.Variant `json:"codec"`
}

// MediaFileInfo is the structural description of a media file.
type MediaFileInfo struct {
	HasVideoStreams bool              `json:"has_video_streams"`
	AudioStreams    []AudioStreamInfo `json:"audio_streams"`
	FormatNames     []string          `json:"format_names"`
}

// FirstAudio returns the first audio stream. Probe guarantees at least one.
func (m MediaFileInfo) FirstAudio() (AudioStreamInfo, bool) {
	if len(m.AudioStreams) == 0 {
		return AudioStreamInfo{}, false
	}
	return m.AudioStreams[0], true
}

// Prober inspects media files with ffprobe.
type Prober struct {
	binary string
	logger *slog.Logger
}

// NewProber constructs a prober using the given ffprobe executable.
func NewProber(binary string, logger *slog.Logger) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, logger: logging.NewComponentLogger(logger, "prober")}
}

// Probe inspects path and returns its stream layout.
func (p *Prober) Probe(ctx context.Context, path string) (MediaFileInfo, error) {
	logger := logging.WithContext(ctx, p.logger)
	if strings.TrimSpace(path) == "" {
		return MediaFileInfo{}, services.Programming("prober", "probe", "empty path", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return MediaFileInfo{}, services.Permanent("prober", "probe", path, err)
	}
	if !info.Mode().IsRegular() {
		return MediaFileInfo{}, services.Permanent("prober", "probe", path+" is not a regular file", nil)
	}

	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return MediaFileInfo{}, fmt.Errorf("probe %s: %w", path, ctxErr)
		}
		if missingBinary(err) {
			return MediaFileInfo{}, services.Programming("prober", "probe", "ffprobe binary "+p.binary, err)
		}
		return MediaFileInfo{}, services.Permanent("prober", "probe", path, err)
	}

	media := describe(result)
	logger.Debug("media probed",
		logging.String("path", path),
		logging.Bool("has_video", media.HasVideoStreams),
		logging.Int("audio_streams", len(media.AudioStreams)),
		logging.String("format", strings.Join(media.FormatNames, ",")),
	)
	if len(media.AudioStreams) == 0 {
		return media, services.Permanent("prober", "probe", path, ErrNoAudio)
	}
	return media, nil
}

// missingBinary reports whether err came from starting the executable rather
// than from ffprobe rejecting the input. The input was stat'ed already.
func missingBinary(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

func describe(result ffprobe.Result) MediaFileInfo {
	media := MediaFileInfo{
		HasVideoStreams: result.VideoStreamCount() > 0,
		FormatNames:     result.FormatNames(),
	}
	containerDuration := result.DurationSeconds()
	for _, stream := range result.AudioStreams() {
		duration := stream.DurationSeconds()
		// Matroska and some MP4 muxers only record duration on the container.
		if duration == 0 || math.IsNaN(duration) {
			duration = containerDuration
		}
		if math.IsNaN(duration) || duration <= 0 {
			continue
		}
		rate := stream.SampleRateHz()
		if rate <= 0 || stream.Channels < 1 {
			continue
		}
		media.AudioStreams = append(media.AudioStreams, AudioStreamInfo{
			Index:           stream.Index,
			DurationSeconds: duration,
			SampleRateHz:    rate,
			Channels:        stream.Channels,
			CodecName:       stream.CodecName,
			Codec:           codec.Classify(stream.CodecName, media.FormatNames),
		})
	}
	return media
}
