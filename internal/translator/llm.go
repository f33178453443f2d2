package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/placeholder"
)

// LLMService localizes through the configured generator, which keeps the
// tone and formatting of the post better than a plain MT engine.
type LLMService struct {
	gen generator.Generator
}

func NewLLMService(gen generator.Generator) *LLMService {
	return &LLMService{gen: gen}
}

func (s *LLMService) Name() string {
	return "llm:" + s.gen.Name()
}

func (s *LLMService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	source := req.SourceLang
	if source == "" || source == "auto" {
		source = "the source language"
	}

	instructions := localizeInstructions
	if strings.Contains(req.Text, "[PH") {
		instructions += "\n\n" + placeholder.InstructionHint()
	}

	out, err := s.gen.Generate(ctx, instructions, map[string]any{
		"source_language": source,
		"target_language": req.TargetLang,
		"post":            req.Text,
	})
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	if out == "" {
		result.Error = "empty translation"
		return result, fmt.Errorf("empty translation from %s", s.gen.Name())
	}

	result.TranslatedText = out
	result.Confidence = 0.9
	return result, nil
}

const localizeInstructions = `You localize LinkedIn posts.

Translate POST from SOURCE LANGUAGE into TARGET LANGUAGE (a BCP 47 tag).
Keep the line breaks, bullet points and emoji exactly where they are. Adapt
idioms so they sound native rather than literal. Keep the length close to
the original.

Output only the translated post.`
