// Package detector identifies the language of source material and posts.
package detector

import (
	"regexp"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Post furniture that carries no language signal.
var noiseRe = regexp.MustCompile(`https?://\S+|[#@][\p{L}\p{N}_]+|[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}]`)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector for the given ISO 639-1 codes. With fewer than two
// recognised codes it covers every language lingua knows.
func New(isoCodes ...string) *Detector {
	var langs []lingua.Language
	for _, code := range isoCodes {
		lang := lingua.GetLanguageFromIsoCode639_1(lingua.GetIsoCode639_1FromValue(strings.ToUpper(strings.TrimSpace(code))))
		if lang != lingua.Unknown {
			langs = append(langs, lang)
		}
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(langs) >= 2 {
		detector = builder.FromLanguages(langs...).Build()
	} else {
		detector = builder.FromAllLanguages().Build()
	}
	return &Detector{detector: detector}
}

// Detect returns the language of text after dropping links, hashtags,
// mentions and emoji.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	text = strings.TrimSpace(noiseRe.ReplaceAllString(text, " "))
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO is Detect reported as a lower-case ISO 639-1 code.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
