// Package validator checks that a localized post is written in the language
// it was localized to.
package validator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/postcraft/internal/detector"
)

// Shorter texts give unreliable detections and pass unchecked.
const minValidationLength = 20

// Validator is expensive to build; reuse it.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by a lingua detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// NewWithDetector shares an existing detector.
func NewWithDetector(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// IsValid reports whether text appears to be written in target, a BCP 47
// tag such as "de" or "pt-BR" (only the base language is compared). Text
// whose language cannot be determined passes.
func (v *Validator) IsValid(text, target string) (bool, error) {
	if target == "" {
		return true, nil
	}

	want, err := BaseLanguage(target)
	if err != nil {
		return false, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("localized post is empty")
	}
	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}
	if !strings.EqualFold(detected, want) {
		return false, fmt.Errorf("expected %s but detected %s", want, detected)
	}
	return true, nil
}

// BaseLanguage parses a BCP 47 tag and returns its base language code.
func BaseLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", tag, err)
	}
	base, _ := t.Base()
	return base.String(), nil
}
