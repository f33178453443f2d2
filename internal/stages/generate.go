package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/postprocess"
)

// Draft writes the initial draft from the processed source content.
type Draft struct {
	gen    generator.Generator
	logger *slog.Logger
}

func NewDraft(gen generator.Generator, logger *slog.Logger) *Draft {
	if logger == nil {
		logger = slog.Default()
	}
	return &Draft{gen: gen, logger: logger}
}

func (s *Draft) Name() string { return "initial_generation" }

func (s *Draft) Run(ctx context.Context, wc *internal.WorkContext) error {
	content := wc.String(internal.KeyProcessedContent)
	if content == "" {
		return fmt.Errorf("missing %s", internal.KeyProcessedContent)
	}

	input := map[string]any{
		"content":    content,
		"input_type": wc.String(internal.KeyInputType),
		"title":      wc.String(internal.KeySourceTitle),
	}
	if tpl, ok := wc.Get(internal.KeyStyleTemplate); ok {
		input["style"] = tpl
	}

	start := time.Now()
	out, err := s.gen.Generate(ctx, draftInstructions, input)
	if err != nil {
		return err
	}
	out = postprocess.Clean(out)
	if out == "" {
		return &generator.GenerationError{Provider: s.gen.Name(), Err: fmt.Errorf("empty draft")}
	}

	wc.Draft = out
	s.logger.Info("initial draft generated",
		"provider", s.gen.Name(),
		"chars", len([]rune(out)),
		"duration", time.Since(start),
	)
	return nil
}

const draftInstructions = `You are an experienced LinkedIn ghostwriter.

Write one LinkedIn post based on CONTENT. INPUT TYPE tells you whether
CONTENT is a topic to write about, notes to build on, or an article to
summarise for a professional audience. Follow STYLE exactly: its sections
in the given order, its tone and its formatting rules.

Rules:
- Use plain text with line breaks. Use "•" for bullets, never markdown.
- Keep facts, names and numbers from CONTENT; do not invent statistics.
- End with the hashtags on their own line.

Output only the post.`
