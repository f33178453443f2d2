// Package generator is the text generation capability used by the drafting,
// review and revision stages: "produce text given instructions and context".
//
// Implementations talk to an LLM backend and return cleaned text. They never
// retry on their own; wrap them with Resilient for timeouts and retries.
package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Generator produces text from instructions and structured context.
type Generator interface {
	Name() string
	Generate(ctx context.Context, instructions string, input map[string]any) (string, error)
}

// Settings configures a concrete backend.
type Settings struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	Model       string        `mapstructure:"model" json:"model"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
}

// GenerationError reports a provider or network failure.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func fail(provider string, format string, args ...any) error {
	return &GenerationError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// RenderInput formats the structured context as labelled sections in a
// stable key order.
func RenderInput(input map[string]any) string {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		val := renderValue(input[k])
		if val == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.ToUpper(strings.ReplaceAll(k, "_", " ")))
		sb.WriteString(":\n")
		sb.WriteString(val)
	}
	return sb.String()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []string:
		lines := make([]string, 0, len(val))
		for _, s := range val {
			lines = append(lines, "- "+s)
		}
		return strings.Join(lines, "\n")
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return fmt.Sprintf("%v", val)
	}
}
