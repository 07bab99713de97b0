package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidTag reports an empty or unparsable language tag.
var ErrInvalidTag = errors.New("invalid language tag")

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	alt3    string // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string
	word    string
}

var languages = []entry{
	{"en", "eng", "", "English", "english"},
	{"es", "spa", "", "Spanish", "spanish"},
	{"fr", "fra", "fre", "French", "french"},
	{"de", "deu", "ger", "German", "german"},
	{"it", "ita", "", "Italian", "italian"},
	{"pt", "por", "", "Portuguese", "portuguese"},
	{"ja", "jpn", "", "Japanese", "japanese"},
	{"ko", "kor", "", "Korean", "korean"},
	{"zh", "zho", "chi", "Chinese", "chinese"},
	{"ru", "rus", "", "Russian", "russian"},
	{"ar", "ara", "", "Arabic", "arabic"},
	{"hi", "hin", "", "Hindi", "hindi"},
	{"nl", "nld", "dut", "Dutch", "dutch"},
	{"pl", "pol", "", "Polish", "polish"},
	{"sv", "swe", "", "Swedish", "swedish"},
	{"da", "dan", "", "Danish", "danish"},
	{"no", "nor", "", "Norwegian", "norwegian"},
	{"fi", "fin", "", "Finnish", "finnish"},
	{"lt", "lit", "", "Lithuanian", "lithuanian"},
	{"uk", "ukr", "", "Ukrainian", "ukrainian"},
}

var aliases = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		m[e.word] = e
	}
	return m
}()

// Canonical returns the canonical BCP 47 form of code ("en_us" -> "en-US",
// "eng" -> "en"). Empty, undetermined, and unparsable tags are rejected.
func Canonical(code string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTag)
	}
	if e, ok := aliases[strings.ToLower(cleaned)]; ok {
		cleaned = e.code2
	}
	tag, err := language.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTag, code, err)
	}
	if tag == language.Und {
		return "", fmt.Errorf("%w: %q is undetermined", ErrInvalidTag, code)
	}
	return tag.String(), nil
}

// DisplayName returns a human-readable name for the base language of code.
func DisplayName(code string) string {
	canonical, err := Canonical(code)
	if err != nil {
		if strings.TrimSpace(code) == "" {
			return "Unknown"
		}
		return strings.ToUpper(strings.TrimSpace(code))
	}
	base, _ := language.MustParse(canonical).Base()
	for _, e := range languages {
		if e.code2 == base.String() {
			return e.display
		}
	}
	return canonical
}
