// Package logs reads the podscribe log file for the `logs` command.
//
// Last returns the trailing lines of the file, optionally narrowed to one job
// handle, and the offset to continue from. Follow streams lines appended after
// that offset until its context is cancelled.
package logs
