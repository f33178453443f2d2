package stages

import (
	"context"
	"log/slog"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/loop"
	"github.com/valpere/postcraft/internal/translator"
)

// PostLocalizer translates a post into several languages.
type PostLocalizer interface {
	LocalizeAll(ctx context.Context, text, source string, targets []string) ([]translator.Translation, error)
}

// Localize translates the final draft into the requested languages.
type Localize struct {
	loc     PostLocalizer
	targets []string
	logger  *slog.Logger
}

func NewLocalize(loc PostLocalizer, targets []string, logger *slog.Logger) *Localize {
	if logger == nil {
		logger = slog.Default()
	}
	return &Localize{loc: loc, targets: targets, logger: logger}
}

func (s *Localize) Name() string { return "localize" }

func (s *Localize) Run(ctx context.Context, wc *internal.WorkContext) error {
	if len(s.targets) == 0 {
		return nil
	}

	text := wc.Draft
	if res, err := loop.ResultFrom(wc); err == nil {
		text = res.FinalDraft
	}

	source := wc.String(internal.KeySourceLanguage)
	if source == "" {
		source = "auto"
	}

	translations, err := s.loc.LocalizeAll(ctx, text, source, s.targets)
	if err != nil {
		return err
	}
	wc.Set(internal.KeyTranslations, translations)
	s.logger.Info("post localized", "requested", len(s.targets), "done", len(translations))
	return nil
}
