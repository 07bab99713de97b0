// Package jobstore persists submitted transcription jobs in SQLite so polling
// can resume by handle after a restart.
//
// One row per remote job. A row starts as submitted, is touched by every poll,
// and ends completed (with the transcript JSON) or failed (with the error kind
// and message). Schema changes bump schemaVersion in schema.go; operators
// delete the database to adopt a new schema.
package jobstore
