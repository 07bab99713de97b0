// Package probe turns ffprobe output into the structural description the
// codec policy and transcoder reason about.
//
// Probing is local and deterministic: any failure to parse a file, or a file
// without a usable audio stream, is reported as services.ErrPermanent. Only a
// missing ffprobe binary (an installation defect) is reported as
// services.ErrProgramming.
package probe
