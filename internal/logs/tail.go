package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes        = 1024 * 1024
	defaultPollInterval = 250 * time.Millisecond
)

// Options selects which lines are returned.
type Options struct {
	// Lines caps how many trailing lines Last returns. Zero means none.
	Lines int
	// JobID keeps only records tagged with this job handle.
	JobID string
	// PollInterval is how often Follow checks for new data.
	PollInterval time.Duration
}

func (o Options) matches(line string) bool {
	if o.JobID == "" {
		return true
	}
	// Console records carry job_id=<handle>, JSON records "job_id":"<handle>".
	return strings.Contains(line+" ", "job_id="+o.JobID+" ") ||
		strings.Contains(line, `"job_id":"`+o.JobID+`"`)
}

// Last returns up to opts.Lines matching lines from the end of path together
// with the file size, which is where Follow should resume. A missing file
// yields no lines and offset zero.
func Last(path string, opts Options) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Lines <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, opts.Lines)
	count, next := 0, 0
	offset, err := scan(file, func(line string) {
		if !opts.matches(line) {
			return
		}
		ring[next] = line
		next = (next + 1) % opts.Lines
		if count < opts.Lines {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == opts.Lines {
		start = next
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%opts.Lines])
	}
	return lines, offset, nil
}

// Follow emits matching lines appended to path after offset until ctx is
// cancelled. A truncated file is read again from the start. Cancellation
// returns nil.
func Follow(ctx context.Context, path string, offset int64, opts Options, emit func(string)) error {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, func(line string) {
			if opts.matches(line) {
				emit(line)
			}
		})
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if offset == info.Size() {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	read, err := scan(file, emit)
	if err != nil {
		return offset, err
	}
	return offset + read, nil
}

// scan emits every complete line of r and returns the number of bytes those
// lines occupy. A trailing partial line is left for the next read.
func scan(r io.Reader, emit func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			consumed += int64(len(line))
			if len(line) <= maxLineBytes {
				emit(strings.TrimRight(line, "\r\n"))
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		return consumed, fmt.Errorf("read log file: %w", err)
	}
}
