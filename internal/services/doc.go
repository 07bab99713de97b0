// Package services defines shared utilities consumed by the media pipeline and
// the remote transcription integration.
//
// Key responsibilities:
//   - Error markers (ErrPermanent, ErrProgramming) plus the Wrap helper so every
//     failure at a public boundary carries its kind, the operation name and the
//     identifying parameter.
//   - Context helpers that stamp job handles, episode identifiers, and
//     correlation identifiers for logging.
//
// External service adapters live in subpackages (see googlespeech).
package services
