// Package stages holds the pipeline stages around the refinement loop:
// input processing, preference loading, initial drafting, localization and
// finalization.
package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/detector"
	"github.com/valpere/postcraft/internal/extractor"
)

// SourceExtractor turns raw input into source content.
type SourceExtractor interface {
	Extract(ctx context.Context, input string) (*extractor.Source, error)
}

// Input processes the raw request input found under KeyInput.
type Input struct {
	ext    SourceExtractor
	det    *detector.Detector
	logger *slog.Logger
}

// NewInput creates the input stage. A nil detector skips language detection.
func NewInput(ext SourceExtractor, det *detector.Detector, logger *slog.Logger) *Input {
	if logger == nil {
		logger = slog.Default()
	}
	return &Input{ext: ext, det: det, logger: logger}
}

func (s *Input) Name() string { return "input" }

func (s *Input) Run(ctx context.Context, wc *internal.WorkContext) error {
	raw := wc.String(internal.KeyInput)
	if raw == "" {
		return fmt.Errorf("missing %s", internal.KeyInput)
	}

	src, err := s.ext.Extract(ctx, raw)
	if err != nil {
		return err
	}

	wc.Set(internal.KeyProcessedContent, src.Content)
	wc.Set(internal.KeyInputType, string(src.Type))
	wc.Set(internal.KeySourceRef, src.Ref)
	if src.Title != "" {
		wc.Set(internal.KeySourceTitle, src.Title)
	}
	if s.det != nil {
		if lang, ok := s.det.DetectISO(src.Content); ok {
			wc.Set(internal.KeySourceLanguage, lang)
		}
	}

	s.logger.Info("input processed",
		"type", src.Type,
		"title", src.Title,
		"language", wc.String(internal.KeySourceLanguage),
		"truncated", src.Truncated,
	)
	return nil
}
