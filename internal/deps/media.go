package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// MediaRequirements lists the ffmpeg tools the media pipeline executes.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Purpose: "transcoding to mono FLAC"},
		{Name: "FFprobe", Command: ffprobeBinary, Purpose: "media inspection"},
	}
}

// Version runs "<binary> -version" and returns the first output line.
func Version(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line), nil
}

// AnnotateVersions fills Detail with the reported version of each available binary.
func AnnotateVersions(ctx context.Context, statuses []Status) []Status {
	for i := range statuses {
		if !statuses[i].Available || statuses[i].Detail != "" {
			continue
		}
		version, err := Version(ctx, statuses[i].Path)
		if err != nil {
			statuses[i].Detail = "version unknown"
			continue
		}
		statuses[i].Detail = version
	}
	return statuses
}
