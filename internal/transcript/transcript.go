// Package transcript holds the normalized recognition result handed to storage.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Alternative is one ranked hypothesis for an utterance.
type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Utterance is one result segment. Alternatives keep the order the service
// returned them in.
type Utterance struct {
	LanguageCode string        `json:"language_code"`
	Alternatives []Alternative `json:"alternatives"`
}

// Best returns the top-ranked alternative.
func (u Utterance) Best() (Alternative, bool) {
	if len(u.Alternatives) == 0 {
		return Alternative{}, false
	}
	return u.Alternatives[0], true
}

// Transcript is an ordered sequence of utterances.
type Transcript struct {
	Utterances []Utterance `json:"utterances"`
}

// Text joins the best alternative of every utterance with single spaces,
// skipping utterances whose best text is empty.
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		best, ok := u.Best()
		if !ok || best.Text == "" {
			continue
		}
		parts = append(parts, best.Text)
	}
	return strings.Join(parts, " ")
}

// Languages returns the distinct utterance language codes in first-seen order.
func (t Transcript) Languages() []string {
	seen := make(map[string]struct{}, 1)
	var out []string
	for _, u := range t.Utterances {
		if u.LanguageCode == "" {
			continue
		}
		if _, ok := seen[u.LanguageCode]; ok {
			continue
		}
		seen[u.LanguageCode] = struct{}{}
		out = append(out, u.LanguageCode)
	}
	return out
}

// Encode serializes the transcript for storage.
func Encode(t Transcript) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored transcript.
func Decode(data string) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return t, nil
}
