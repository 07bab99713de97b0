package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "video", Disposition: Disposition{AttachedPic: 1}},
			{CodecType: "audio", SampleRate: "44100", Duration: "12.5"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration:   "123.45",
			FormatName: "mov,mp4,m4a",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	audio := result.AudioStreams()
	if audio[0].SampleRateHz() != 44100 || audio[0].DurationSeconds() != 12.5 {
		t.Fatalf("unexpected audio stream values: %+v", audio[0])
	}
	names := result.FormatNames()
	if len(names) != 3 || names[1] != "mp4" {
		t.Fatalf("unexpected format names: %v", names)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	stream := Stream{Duration: "bad", SampleRate: "-1"}
	if !math.IsNaN(stream.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", stream.DurationSeconds())
	}
	if stream.SampleRateHz() != 0 {
		t.Fatalf("expected sample rate 0, got %d", stream.SampleRateHz())
	}
	if (Stream{Duration: "N/A"}).DurationSeconds() != 0 {
		t.Fatal("expected N/A duration to parse as 0")
	}
}

func TestParseRejectsEmptyOutput(t *testing.T) {
	if _, err := Parse([]byte("  \n")); !errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\nprintf '%s' '{\"streams\":[{\"index\":0,\"codec_type\":\"audio\",\"codec_name\":\"mp3\",\"channels\":1}],\"format\":{\"format_name\":\"mp3\"}}'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), stub, filepath.Join(dir, "episode.mp3"))
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.AudioStreamCount() != 1 || result.Streams[0].CodecName != "mp3" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, filepath.Join(dir, "bad.mp3")); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), stub, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
