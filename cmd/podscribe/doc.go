// Package main hosts the podscribe CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the media pipeline
// (probe, transcode, prepare), the recognition lifecycle (submit, poll,
// poll-pending, watch), the job store (jobs, show, retry) and diagnostics (logs,
// check, test-notify). Configuration, logger
// and store construction are centralized in commandContext so subcommands
// only describe user-facing behaviour.
package main
