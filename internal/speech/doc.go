// Package speech submits normalized audio to a long-running recognition
// service and turns finished jobs into transcripts.
//
// Client owns the request shape and the error taxonomy; the transport lives
// behind the Recognizer interface (see internal/services/googlespeech) so
// tests can substitute an in-memory fake. Submit returns a JobHandle that the
// caller persists. Poll is non-blocking: a nil transcript with a nil error
// means the job is still running and the caller decides when to ask again.
package speech
