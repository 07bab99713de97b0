package transcode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"podscribe/internal/fileutil"
	"podscribe/internal/logging"
	"podscribe/internal/media/policy"
	"podscribe/internal/media/probe"
	"podscribe/internal/services"
)

const component = "transcoder"

// MediaProber is the subset of probe.Prober the transcoder depends on.
type MediaProber interface {
	Probe(ctx context.Context, path string) (probe.MediaFileInfo, error)
}

// Result reports what TranscodeIfNeeded did.
type Result struct {
	Transcoded bool
	// OutputPath is set only when Transcoded is true.
	OutputPath string
	Decision   policy.Decision
	Source     probe.MediaFileInfo
}

// AudioPath returns the file that should be submitted for recognition.
func (r Result) AudioPath(input string) string {
	if r.Transcoded {
		return r.OutputPath
	}
	return input
}

// Transcoder converts sources that fail the codec policy.
type Transcoder struct {
	ffmpeg string
	prober MediaProber
	logger *slog.Logger
}

// New constructs a transcoder using the given ffmpeg executable.
func New(ffmpegBinary string, prober MediaProber, logger *slog.Logger) *Transcoder {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Transcoder{
		ffmpeg: ffmpegBinary,
		prober: prober,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// TranscodeIfNeeded writes a canonical mono copy of input to output when the
// codec policy requires one. On a no-op decision output does not exist
// afterwards and input is untouched.
func (t *Transcoder) TranscodeIfNeeded(ctx context.Context, input, output string) (Result, error) {
	if t == nil || t.prober == nil {
		return Result{}, services.Programming(component, "transcode", "transcoder not configured", nil)
	}
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return Result{}, services.Programming(component, "transcode", "input and output paths are required", nil)
	}
	if samePath(input, output) {
		return Result{}, services.Programming(component, "transcode", "output would overwrite input "+input, nil)
	}
	logger := logging.WithContext(ctx, t.logger)

	info, err := t.prober.Probe(ctx, input)
	if err != nil {
		return Result{}, err
	}
	decision := policy.Decide(info)
	if decision.Noop() {
		if err := fileutil.RemoveIfExists(output); err != nil {
			return Result{}, services.Programming(component, "transcode", "remove stale output "+output, err)
		}
		logger.Info("source already qualifies", logging.String("input", input))
		return Result{Decision: decision, Source: info}, nil
	}

	first, _ := info.FirstAudio()
	partial := fileutil.PartialPath(output)
	if err := fileutil.RemoveIfExists(partial); err != nil {
		return Result{}, services.Programming(component, "transcode", "remove stale partial "+partial, err)
	}
	logger.Info("transcoding",
		logging.String("input", input),
		logging.String("output", output),
		logging.String("decision", decision.String()),
	)

	start := time.Now()
	if err := t.encode(ctx, input, partial, first.Index, decision); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, err
	}
	if err := t.verify(ctx, partial); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, err
	}
	if err := fileutil.Finalize(partial, output); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, services.Programming(component, "finalize", output, err)
	}
	logger.Info("transcode complete",
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Result{Transcoded: true, OutputPath: output, Decision: decision, Source: info}, nil
}

// Args returns the ffmpeg argument list for one encode.
func Args(input, output string, streamIndex int, decision policy.Decision) []string {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-sn",
		"-dn",
		"-map_metadata", "-1",
		"-ac", "1",
	}
	if decision.SampleRateHz > 0 {
		args = append(args, "-ar", strconv.Itoa(decision.SampleRateHz))
	}
	return append(args,
		"-c:a", "flac",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
		"-f", "flac",
		output,
	)
}

func (t *Transcoder) encode(ctx context.Context, input, partial string, streamIndex int, decision policy.Decision) error {
	cmd := exec.CommandContext(ctx, t.ffmpeg, Args(input, partial, streamIndex, decision)...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("transcode %s: %w", input, ctxErr)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)) {
		return services.Programming(component, "encode", "ffmpeg binary "+t.ffmpeg, err)
	}
	detail := strings.TrimSpace(string(output))
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return services.Permanent(component, "encode", input, err)
}

// verify re-probes the encoded file; anything other than a no-op decision
// means ffmpeg produced a layout the policy would reject.
func (t *Transcoder) verify(ctx context.Context, partial string) error {
	info, err := t.prober.Probe(ctx, partial)
	if err != nil {
		return err
	}
	if decision := policy.Decide(info); !decision.Noop() {
		return services.Programming(component, "verify", fmt.Sprintf("encoded output still needs %s", decision), nil)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
