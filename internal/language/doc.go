// Package language canonicalises the BCP 47 tags attached to submitted audio
// and to recognised utterances.
//
// Input from upstream metadata is messy ("en_us", "eng", "English"); the
// remote recognizer only accepts well-formed tags such as "en-US". Canonical
// performs that normalisation using golang.org/x/text/language.
package language
