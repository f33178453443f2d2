package style

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LengthRange is the preferred post length in characters.
type LengthRange struct {
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Preferences are a user's stored writing preferences. Zero fields mean
// "not set" and are filled from Defaults by Merge.
type Preferences struct {
	WritingStyle       WritingStyle      `json:"writing_style,omitempty" yaml:"writing_style,omitempty"`
	PostStructure      PostStructure     `json:"post_structure,omitempty" yaml:"post_structure,omitempty"`
	CustomInstructions string            `json:"custom_instructions,omitempty" yaml:"custom_instructions,omitempty"`
	Tone               Tone              `json:"tone,omitempty" yaml:"tone,omitempty"`
	PostLength         LengthRange       `json:"post_length,omitempty" yaml:"post_length,omitempty"`
	Topics             []string          `json:"topics,omitempty" yaml:"topics,omitempty"`
	IndustryTemplate   string            `json:"industry_template,omitempty" yaml:"industry_template,omitempty"`
	EmojiUsage         Usage             `json:"emoji_usage,omitempty" yaml:"emoji_usage,omitempty"`
	HashtagUsage       Usage             `json:"hashtag_usage,omitempty" yaml:"hashtag_usage,omitempty"`
	SentenceStructure  SentenceStructure `json:"sentence_structure,omitempty" yaml:"sentence_structure,omitempty"`
	OpeningHookStyle   HookStyle         `json:"opening_hook_style,omitempty" yaml:"opening_hook_style,omitempty"`
}

// Defaults returns the preferences used for any field a user has not set.
// PostStructure stays empty: no structure means generic guidance.
func Defaults() Preferences {
	return Preferences{
		WritingStyle:      StyleProfessional,
		Tone:              ToneProfessional,
		PostLength:        LengthRange{Min: 100, Max: 3000},
		EmojiUsage:        UsageModerate,
		HashtagUsage:      UsageModerate,
		SentenceStructure: SentencesMixed,
		OpeningHookStyle:  HookStatement,
	}
}

// Merge overlays the set fields of override on base. Post length merges
// per bound.
func Merge(base, override Preferences) Preferences {
	out := base
	if override.WritingStyle != "" {
		out.WritingStyle = override.WritingStyle
	}
	if override.PostStructure != "" {
		out.PostStructure = override.PostStructure
	}
	if override.CustomInstructions != "" {
		out.CustomInstructions = override.CustomInstructions
	}
	if override.Tone != "" {
		out.Tone = override.Tone
	}
	if override.PostLength.Min != 0 {
		out.PostLength.Min = override.PostLength.Min
	}
	if override.PostLength.Max != 0 {
		out.PostLength.Max = override.PostLength.Max
	}
	if len(override.Topics) > 0 {
		out.Topics = append([]string(nil), override.Topics...)
	}
	if override.IndustryTemplate != "" {
		out.IndustryTemplate = override.IndustryTemplate
	}
	if override.EmojiUsage != "" {
		out.EmojiUsage = override.EmojiUsage
	}
	if override.HashtagUsage != "" {
		out.HashtagUsage = override.HashtagUsage
	}
	if override.SentenceStructure != "" {
		out.SentenceStructure = override.SentenceStructure
	}
	if override.OpeningHookStyle != "" {
		out.OpeningHookStyle = override.OpeningHookStyle
	}
	return out
}

// Resolve merges p over Defaults and snaps every enum to a known value.
func Resolve(p Preferences) Preferences {
	out := Merge(Defaults(), p)
	out.WritingStyle = ParseWritingStyle(string(out.WritingStyle))
	if out.PostStructure != "" {
		out.PostStructure = ParsePostStructure(string(out.PostStructure))
	}
	out.Tone = ParseTone(string(out.Tone))
	out.EmojiUsage = ParseUsage(string(out.EmojiUsage))
	out.HashtagUsage = ParseUsage(string(out.HashtagUsage))
	out.SentenceStructure = ParseSentenceStructure(string(out.SentenceStructure))
	out.OpeningHookStyle = ParseHookStyle(string(out.OpeningHookStyle))
	return out
}

// Validate reports unknown enum values and an inverted length range.
func (p Preferences) Validate() error {
	var problems []string
	check := func(field, value string, ok bool) {
		if value != "" && !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown value %q", field, value))
		}
	}
	check("writing_style", string(p.WritingStyle), valid(p.WritingStyle, WritingStyles))
	check("post_structure", string(p.PostStructure), valid(p.PostStructure, PostStructures))
	check("tone", string(p.Tone), valid(p.Tone, Tones))
	check("emoji_usage", string(p.EmojiUsage), valid(p.EmojiUsage, Usages))
	check("hashtag_usage", string(p.HashtagUsage), valid(p.HashtagUsage, Usages))
	check("sentence_structure", string(p.SentenceStructure), valid(p.SentenceStructure, SentenceStructures))
	check("opening_hook_style", string(p.OpeningHookStyle), valid(p.OpeningHookStyle, HookStyles))
	if p.PostLength.Min < 0 || p.PostLength.Max < 0 || (p.PostLength.Max != 0 && p.PostLength.Min > p.PostLength.Max) {
		problems = append(problems, fmt.Sprintf("post_length: invalid range [%d,%d]", p.PostLength.Min, p.PostLength.Max))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid preferences: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Set assigns one field by its serialized name. Topics take a comma list.
func (p *Preferences) Set(field, value string) error {
	switch field {
	case "writing_style":
		p.WritingStyle = WritingStyle(value)
	case "post_structure":
		p.PostStructure = PostStructure(value)
	case "custom_instructions":
		p.CustomInstructions = value
	case "tone":
		p.Tone = Tone(value)
	case "post_length.min":
		if err := setInt(&p.PostLength.Min, value); err != nil {
			return err
		}
	case "post_length.max":
		if err := setInt(&p.PostLength.Max, value); err != nil {
			return err
		}
	case "topics":
		p.Topics = nil
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				p.Topics = append(p.Topics, t)
			}
		}
	case "industry_template":
		p.IndustryTemplate = value
	case "emoji_usage":
		p.EmojiUsage = Usage(value)
	case "hashtag_usage":
		p.HashtagUsage = Usage(value)
	case "sentence_structure":
		p.SentenceStructure = SentenceStructure(value)
	case "opening_hook_style":
		p.OpeningHookStyle = HookStyle(value)
	default:
		return fmt.Errorf("unknown preference field %q", field)
	}
	return p.Validate()
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", value, err)
	}
	*dst = n
	return nil
}

// LoadFile reads preferences from a YAML (or JSON, which is valid YAML) file.
func LoadFile(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Preferences{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// EncodeJSON serializes p for storage.
func EncodeJSON(p Preferences) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode preferences: %w", err)
	}
	return string(data), nil
}

// DecodeJSON parses stored preferences. Empty input yields zero preferences.
func DecodeJSON(s string) (Preferences, error) {
	var p Preferences
	if strings.TrimSpace(s) == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Preferences{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return p, nil
}

// EncodeYAML renders p for display and export.
func EncodeYAML(p Preferences) (string, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode preferences: %w", err)
	}
	return string(data), nil
}
