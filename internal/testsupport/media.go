package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"podscribe/internal/media/ffprobe"
)

// ProbeSidecarSuffix names the file the stub ffprobe prints for a given input.
const ProbeSidecarSuffix = ".probe.json"

// StubOutput is the payload the stub ffmpeg writes to its output file.
const StubOutput = "fLaC\x00podscribe-stub-mono"

// AudioStream returns an ffprobe audio stream fixture.
func AudioStream(index int, codecName string, channels, sampleRate int, duration string) ffprobe.Stream {
	return ffprobe.Stream{
		Index:      index,
		CodecType:  "audio",
		CodecName:  codecName,
		Channels:   channels,
		SampleRate: strconv.Itoa(sampleRate),
		Duration:   duration,
	}
}

// VideoStream returns an ffprobe video stream fixture.
func VideoStream(index int, codecName string) ffprobe.Stream {
	return ffprobe.Stream{Index: index, CodecType: "video", CodecName: codecName}
}

// ProbeFixture builds an ffprobe result for a container.
func ProbeFixture(formatName, duration string, streams ...ffprobe.Stream) ffprobe.Result {
	return ffprobe.Result{
		Streams: streams,
		Format:  ffprobe.Format{FormatName: formatName, Duration: duration, NBStreams: len(streams)},
	}
}

// MonoFLAC is the layout the stub ffmpeg reports for everything it writes.
func MonoFLAC() ffprobe.Result {
	return ProbeFixture("flac", "30.000000", AudioStream(0, "flac", 1, 44100, "30.000000"))
}

// WriteMedia writes a fake media file with the given content and a sidecar
// describing it to the stub ffprobe. A zero Result leaves no sidecar, which
// makes the stub ffprobe fail as it would on a corrupt file.
func WriteMedia(t testing.TB, path string, content string, probe ffprobe.Result) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if len(probe.Streams) == 0 && probe.Format.FormatName == "" {
		return
	}
	data, err := json.Marshal(probe)
	if err != nil {
		t.Fatalf("marshal probe fixture: %v", err)
	}
	if err := os.WriteFile(path+ProbeSidecarSuffix, data, 0o644); err != nil {
		t.Fatalf("write probe sidecar: %v", err)
	}
}

// StubFFprobe writes an ffprobe stand-in into dir. It prints "<input>.probe.json"
// and fails like ffprobe on unparsable input when the sidecar is missing.
func StubFFprobe(t testing.TB, dir string) string {
	t.Helper()
	script := `#!/bin/sh
if [ "$1" = "-version" ]; then
	echo "ffprobe version stub"
	exit 0
fi
for last; do :; done
if [ -f "$last` + ProbeSidecarSuffix + `" ]; then
	cat "$last` + ProbeSidecarSuffix + `"
	exit 0
fi
echo "$last: Invalid data found when processing input" >&2
exit 1
`
	return writeScript(t, dir, "ffprobe", script)
}

// StubFFmpeg writes an ffmpeg stand-in into dir. It writes StubOutput to its
// last argument, records its arguments in "<output>.args", and leaves sidecars
// describing a mono FLAC stream for both the output and its ".partial"-less name.
func StubFFmpeg(t testing.TB, dir string) string {
	t.Helper()
	data, err := json.Marshal(MonoFLAC())
	if err != nil {
		t.Fatalf("marshal mono fixture: %v", err)
	}
	script := `#!/bin/sh
if [ "$1" = "-version" ]; then
	echo "ffmpeg version stub"
	exit 0
fi
for last; do :; done
final="${last%.partial}"
printf '%s\n' "$@" > "$final.args"
printf 'fLaC\000podscribe-stub-mono' > "$last"
cat > "$last` + ProbeSidecarSuffix + `" <<'JSON'
` + string(data) + `
JSON
cp "$last` + ProbeSidecarSuffix + `" "$final` + ProbeSidecarSuffix + `"
`
	return writeScript(t, dir, "ffmpeg", script)
}

// FailingBinary writes an executable that prints message to stderr and exits 1.
func FailingBinary(t testing.TB, dir, name, message string) string {
	t.Helper()
	return writeScript(t, dir, name, "#!/bin/sh\necho '"+message+"' >&2\nexit 1\n")
}

// Binary writes an arbitrary shell script executable.
func Binary(t testing.TB, dir, name, body string) string {
	t.Helper()
	return writeScript(t, dir, name, "#!/bin/sh\n"+body)
}

func writeScript(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
