// Package workflow strings the media pipeline and the recognition client
// together and keeps the job store in step with the remote jobs.
//
// Prepare normalizes an episode into the work directory, Submit starts a
// remote job and records its handle, and PollPending makes one pass over all
// submitted jobs. PollPending holds an exclusive file lock so concurrent
// invocations (cron plus a manual run, say) never poll the same job twice.
// Watch repeats PollPending at a caller-chosen interval until its context is
// cancelled. Recorded submissions and terminal outcomes are published through
// the notifications service.
package workflow
