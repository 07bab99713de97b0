package transcode_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"podscribe/internal/fileutil"
	"podscribe/internal/logging"
	"podscribe/internal/media/codec"
	"podscribe/internal/media/ffprobe"
	"podscribe/internal/media/policy"
	"podscribe/internal/media/probe"
	"podscribe/internal/media/transcode"
	"podscribe/internal/services"
	"podscribe/internal/testsupport"
)

type fixture struct {
	dir        string
	transcoder *transcode.Transcoder
	prober     *probe.Prober
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	prober := probe.NewProber(testsupport.StubFFprobe(t, bin), logging.NewNop())
	return fixture{
		dir:        dir,
		prober:     prober,
		transcoder: transcode.New(testsupport.StubFFmpeg(t, bin), prober, logging.NewNop()),
	}
}

func (f fixture) write(t *testing.T, name, content string, result ffprobe.Result) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	testsupport.WriteMedia(t, path, content, result)
	return path
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	sum, err := fileutil.HashFile(path)
	if err != nil {
		t.Fatalf("hash %s: %v", path, err)
	}
	return sum
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

func TestMonoMP3IsNotTranscoded(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "episode.mp3", "ID3-mono-mp3", testsupport.ProbeFixture("mp3", "30",
		testsupport.AudioStream(0, "mp3", 1, 16000, "30"),
	))
	output := filepath.Join(f.dir, "episode.flac")
	before := mustHash(t, input)

	result, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranscodeIfNeeded: %v", err)
	}
	if result.Transcoded || result.OutputPath != "" {
		t.Fatalf("expected no-op, got %+v", result)
	}
	if result.AudioPath(input) != input {
		t.Fatalf("expected audio path to be the input, got %q", result.AudioPath(input))
	}
	assertMissing(t, output)
	assertMissing(t, output+".args")
	if after := mustHash(t, input); after != before {
		t.Fatal("input hash changed")
	}
}

func TestNoopRemovesStaleOutput(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "episode.wav", "RIFF", testsupport.ProbeFixture("wav", "5",
		testsupport.AudioStream(0, "pcm_s16le", 1, 16000, "5"),
	))
	output := filepath.Join(f.dir, "episode.flac")
	if err := os.WriteFile(output, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale output: %v", err)
	}

	result, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranscodeIfNeeded: %v", err)
	}
	if result.Transcoded {
		t.Fatal("expected no-op")
	}
	assertMissing(t, output)
}

func TestStereoWAVIsDownmixed(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "stereo.wav", "RIFF-stereo", testsupport.ProbeFixture("wav", "12",
		testsupport.AudioStream(0, "pcm_s16le", 2, 44100, "12"),
	))
	output := filepath.Join(f.dir, "stereo.flac")
	before := mustHash(t, input)

	result, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranscodeIfNeeded: %v", err)
	}
	if !result.Transcoded || result.OutputPath != output {
		t.Fatalf("expected transcode to %s, got %+v", output, result)
	}
	if !reflect.DeepEqual(result.Decision.Reasons, []policy.Reason{policy.ReasonMultiChannel}) {
		t.Fatalf("unexpected reasons %v", result.Decision.Reasons)
	}
	assertMissing(t, fileutil.PartialPath(output))
	if after := mustHash(t, input); after != before {
		t.Fatal("input hash changed")
	}

	info, err := f.prober.Probe(context.Background(), output)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if len(info.AudioStreams) != 1 || info.AudioStreams[0].Channels != 1 || !info.AudioStreams[0].Codec.Supported() {
		t.Fatalf("output is not a single mono supported stream: %+v", info)
	}
	if info.AudioStreams[0].Codec != codec.FLAC || info.HasVideoStreams {
		t.Fatalf("unexpected output layout %+v", info)
	}

	args, err := os.ReadFile(output + ".args")
	if err != nil {
		t.Fatalf("read ffmpeg args: %v", err)
	}
	joined := strings.Join(strings.Fields(string(args)), " ")
	for _, want := range []string{"-i " + input, "-map 0:0", "-ac 1", "-c:a flac", fileutil.PartialPath(output)} {
		if !strings.Contains(joined, want) {
			t.Fatalf("ffmpeg args %q missing %q", joined, want)
		}
	}
	if strings.Contains(joined, "-ar ") {
		t.Fatalf("did not expect resampling: %q", joined)
	}
}

func TestVideoAndExtraStreamsAreStripped(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "episode.mp4", "mp4", testsupport.ProbeFixture("mov,mp4,m4a,3gp,3g2,mj2", "90",
		testsupport.VideoStream(0, "h264"),
		testsupport.AudioStream(1, "aac", 2, 48000, "90"),
		testsupport.AudioStream(2, "aac", 2, 48000, "90"),
	))
	output := filepath.Join(f.dir, "episode.flac")

	result, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranscodeIfNeeded: %v", err)
	}
	want := []policy.Reason{policy.ReasonMultiChannel, policy.ReasonUnsupportedCodec, policy.ReasonMultipleStreams, policy.ReasonVideoStreams}
	if !reflect.DeepEqual(result.Decision.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", result.Decision.Reasons, want)
	}
	args, err := os.ReadFile(output + ".args")
	if err != nil {
		t.Fatalf("read ffmpeg args: %v", err)
	}
	if !strings.Contains(string(args), "0:1\n") {
		t.Fatalf("expected first audio stream to be mapped, args:\n%s", args)
	}
}

func TestTranscodeIsDeterministic(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "stereo.wav", "RIFF-stereo", testsupport.ProbeFixture("wav", "12",
		testsupport.AudioStream(0, "pcm_s16le", 2, 44100, "12"),
	))
	first := filepath.Join(f.dir, "out", "first.flac")
	second := filepath.Join(f.dir, "out", "second.flac")
	if err := os.MkdirAll(filepath.Dir(first), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, output := range []string{first, second} {
		if _, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output); err != nil {
			t.Fatalf("TranscodeIfNeeded(%s): %v", output, err)
		}
	}
	if mustHash(t, first) != mustHash(t, second) {
		t.Fatal("expected byte-identical outputs")
	}
}

func TestNoAudioIsPermanentAndCreatesNothing(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "video.mp4", "mp4", testsupport.ProbeFixture("mov,mp4,m4a,3gp,3g2,mj2", "10",
		testsupport.VideoStream(0, "h264"),
	))
	output := filepath.Join(f.dir, "video.flac")

	_, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	assertMissing(t, output)
	assertMissing(t, fileutil.PartialPath(output))
}

func TestCorruptInputIsPermanent(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "garbage.mp3", "garbage", ffprobe.Result{})
	output := filepath.Join(f.dir, "garbage.flac")

	_, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	assertMissing(t, output)
}

func TestEncodeFailureIsPermanentAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	prober := probe.NewProber(testsupport.StubFFprobe(t, bin), logging.NewNop())
	ffmpeg := testsupport.Binary(t, bin, "ffmpeg", `for last; do :; done
printf 'half' > "$last"
echo "Error while decoding stream #0:0: Invalid data found when processing input" >&2
exit 1
`)
	transcoder := transcode.New(ffmpeg, prober, logging.NewNop())

	input := filepath.Join(dir, "stereo.wav")
	testsupport.WriteMedia(t, input, "RIFF", testsupport.ProbeFixture("wav", "3",
		testsupport.AudioStream(0, "pcm_s16le", 2, 44100, "3"),
	))
	output := filepath.Join(dir, "stereo.flac")

	_, err := transcoder.TranscodeIfNeeded(context.Background(), input, output)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected ffmpeg stderr in error, got %v", err)
	}
	assertMissing(t, output)
	assertMissing(t, fileutil.PartialPath(output))
}

func TestMissingFFmpegIsProgramming(t *testing.T) {
	f := newFixture(t)
	transcoder := transcode.New(filepath.Join(f.dir, "no-such-ffmpeg"), f.prober, logging.NewNop())
	input := f.write(t, "stereo.wav", "RIFF", testsupport.ProbeFixture("wav", "3",
		testsupport.AudioStream(0, "pcm_s16le", 2, 44100, "3"),
	))

	_, err := transcoder.TranscodeIfNeeded(context.Background(), input, filepath.Join(f.dir, "stereo.flac"))
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestOutputEqualToInputIsRejected(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "stereo.wav", "RIFF", testsupport.ProbeFixture("wav", "3",
		testsupport.AudioStream(0, "pcm_s16le", 2, 44100, "3"),
	))

	_, err := f.transcoder.TranscodeIfNeeded(context.Background(), input, filepath.Join(f.dir, ".", "stereo.wav"))
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestArgsResampleWhenRequested(t *testing.T) {
	args := transcode.Args("in.wav", "out.flac.partial", 2, policy.Decision{Transcode: true, Target: codec.FLAC, SampleRateHz: 16000})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-map 0:2 ") || !strings.Contains(joined, "-ar 16000 ") {
		t.Fatalf("unexpected args %q", joined)
	}
	if args[len(args)-1] != "out.flac.partial" {
		t.Fatalf("output must be last, got %q", args[len(args)-1])
	}
}
