// Package codec defines the closed set of audio encodings podscribe accepts
// and produces, and their mapping to the remote recognition encoding enum.
package codec

import "strings"

// Variant is one member of the closed set of supported audio encodings.
// The zero value is Unknown.
type Variant int

const (
	Unknown Variant = iota
	LINEAR16
	FLAC
	MULAW
	OggOpus
	MP3
)

type variantInfo struct {
	name string
	// encoding is the remote service's AudioEncoding enum name.
	encoding string
	// streamCodecs are ffprobe codec_name values that classify as this variant.
	streamCodecs []string
	// container restricts classification to a demuxer name when set.
	container string
}

var variants = map[Variant]variantInfo{
	LINEAR16: {name: "linear16", encoding: "LINEAR16", streamCodecs: []string{"pcm_s16le"}},
	FLAC:     {name: "flac", encoding: "FLAC", streamCodecs: []string{"flac"}},
	MULAW:    {name: "mulaw", encoding: "MULAW", streamCodecs: []string{"pcm_mulaw"}},
	OggOpus:  {name: "ogg_opus", encoding: "OGG_OPUS", streamCodecs: []string{"opus"}, container: "ogg"},
	MP3:      {name: "mp3", encoding: "MP3", streamCodecs: []string{"mp3"}},
}

// Supported returns every supported variant in declaration order.
func Supported() []Variant {
	return []Variant{LINEAR16, FLAC, MULAW, OggOpus, MP3}
}

// Supported reports whether v is a member of the supported set.
func (v Variant) Supported() bool {
	_, ok := variants[v]
	return ok
}

// Encoding returns the remote service encoding enum name, or "" for Unknown.
func (v Variant) Encoding() string {
	return variants[v].encoding
}

func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}
	return "unknown"
}

// Parse maps a variant name or encoding name back to a Variant.
func Parse(value string) Variant {
	value = strings.TrimSpace(value)
	for v, info := range variants {
		if strings.EqualFold(value, info.name) || strings.EqualFold(value, info.encoding) {
			return v
		}
	}
	return Unknown
}

// Classify maps an ffprobe stream codec name and the container's demuxer names
// to a Variant. Opus is only accepted inside an Ogg container.
func Classify(codecName string, formatNames []string) Variant {
	codecName = strings.ToLower(strings.TrimSpace(codecName))
	if codecName == "" {
		return Unknown
	}
	for _, v := range Supported() {
		info := variants[v]
		if !contains(info.streamCodecs, codecName) {
			continue
		}
		if info.container != "" && !contains(formatNames, info.container) {
			return Unknown
		}
		return v
	}
	return Unknown
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}

// MarshalText encodes the variant by name.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a variant name; unrecognised names become Unknown.
func (v *Variant) UnmarshalText(text []byte) error {
	*v = Parse(string(text))
	return nil
}
