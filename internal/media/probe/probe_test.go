package probe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"podscribe/internal/logging"
	"podscribe/internal/media/codec"
	"podscribe/internal/media/ffprobe"
	"podscribe/internal/media/probe"
	"podscribe/internal/services"
	"podscribe/internal/testsupport"
)

func newProber(t *testing.T) (*probe.Prober, string) {
	t.Helper()
	dir := t.TempDir()
	bin := testsupport.StubFFprobe(t, filepath.Join(dir, "bin"))
	return probe.NewProber(bin, logging.NewNop()), dir
}

func TestProbeMonoMP3(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "episode.mp3")
	testsupport.WriteMedia(t, path, "ID3", testsupport.ProbeFixture("mp3", "60.0",
		testsupport.AudioStream(0, "mp3", 1, 44100, "59.98"),
		// Cover art is muxed as an mjpeg stream flagged attached_pic.
		withAttachedPic(testsupport.VideoStream(1, "mjpeg")),
	))

	info, err := prober.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.HasVideoStreams {
		t.Fatal("attached picture should not count as video")
	}
	if len(info.AudioStreams) != 1 {
		t.Fatalf("expected 1 audio stream, got %d", len(info.AudioStreams))
	}
	got := info.AudioStreams[0]
	if got.Codec != codec.MP3 || got.Channels != 1 || got.SampleRateHz != 44100 {
		t.Fatalf("unexpected stream %+v", got)
	}
	if got.DurationSeconds != 59.98 {
		t.Fatalf("expected stream duration 59.98, got %v", got.DurationSeconds)
	}
}

func TestProbeFallsBackToContainerDuration(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "episode.mkv")
	testsupport.WriteMedia(t, path, "mkv", testsupport.ProbeFixture("matroska,webm", "120.5",
		testsupport.VideoStream(0, "h264"),
		testsupport.AudioStream(1, "aac", 2, 48000, ""),
	))

	info, err := prober.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !info.HasVideoStreams {
		t.Fatal("expected video stream")
	}
	if info.AudioStreams[0].DurationSeconds != 120.5 {
		t.Fatalf("expected container duration, got %v", info.AudioStreams[0].DurationSeconds)
	}
	if info.AudioStreams[0].Codec != codec.Unknown {
		t.Fatalf("aac should be unknown, got %s", info.AudioStreams[0].Codec)
	}
}

func TestProbeNoAudioIsPermanent(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "silent.mp4")
	testsupport.WriteMedia(t, path, "mp4", testsupport.ProbeFixture("mov,mp4,m4a,3gp,3g2,mj2", "10",
		testsupport.VideoStream(0, "h264"),
	))

	_, err := prober.Probe(context.Background(), path)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if !errors.Is(err, probe.ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestProbeSkipsZeroDurationStreams(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "empty.wav")
	testsupport.WriteMedia(t, path, "RIFF", testsupport.ProbeFixture("wav", "0",
		testsupport.AudioStream(0, "pcm_s16le", 1, 16000, "0"),
	))

	_, err := prober.Probe(context.Background(), path)
	if !errors.Is(err, probe.ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestProbeCorruptFileIsPermanent(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "garbage.mp3")
	if err := os.WriteFile(path, []byte("not media"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := prober.Probe(context.Background(), path)
	if services.KindOf(err) != services.KindPermanent {
		t.Fatalf("expected permanent kind, got %v", err)
	}
}

func TestProbeMissingFileIsPermanent(t *testing.T) {
	prober, dir := newProber(t)
	_, err := prober.Probe(context.Background(), filepath.Join(dir, "missing.mp3"))
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestProbeDirectoryIsPermanent(t *testing.T) {
	prober, dir := newProber(t)
	_, err := prober.Probe(context.Background(), dir)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestProbeEmptyPathIsProgramming(t *testing.T) {
	prober, _ := newProber(t)
	_, err := prober.Probe(context.Background(), "  ")
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestProbeMissingBinaryIsProgramming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mp3")
	testsupport.WriteMedia(t, path, "ID3", testsupport.ProbeFixture("mp3", "1",
		testsupport.AudioStream(0, "mp3", 1, 44100, "1"),
	))
	prober := probe.NewProber(filepath.Join(dir, "no-such-ffprobe"), logging.NewNop())

	_, err := prober.Probe(context.Background(), path)
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestProbeCanceledContextIsNotRelabelled(t *testing.T) {
	prober, dir := newProber(t)
	path := filepath.Join(dir, "episode.mp3")
	testsupport.WriteMedia(t, path, "ID3", testsupport.ProbeFixture("mp3", "1",
		testsupport.AudioStream(0, "mp3", 1, 44100, "1"),
	))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := prober.Probe(ctx, path)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if services.KindOf(err) != services.KindUnknown {
		t.Fatalf("cancellation should carry no kind, got %s", services.KindOf(err))
	}
}

func withAttachedPic(stream ffprobe.Stream) ffprobe.Stream {
	stream.Disposition.AttachedPic = 1
	return stream
}
