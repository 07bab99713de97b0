// Package transcode normalizes episode audio into a single mono stream the
// recognition service accepts.
//
// TranscodeIfNeeded probes the source, asks the codec policy whether the
// layout already qualifies and, only when it does not, runs ffmpeg into a
// ".partial" sibling of the output path. The partial file is re-probed before
// it is renamed into place so a caller never observes an output that would
// itself need transcoding. Inputs are never written to.
package transcode
