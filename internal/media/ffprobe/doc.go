// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no podscribe-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties and dispositions
//   - Format: container-level metadata (duration, size, format name)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result and Stream provide stream filtering and numeric
// parsing of the string-typed fields ffprobe emits.
package ffprobe
