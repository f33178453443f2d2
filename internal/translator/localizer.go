package translator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valpere/postcraft/internal/chunker"
	"github.com/valpere/postcraft/internal/placeholder"
	"github.com/valpere/postcraft/internal/validator"
)

// Translation is one localized version of a post.
type Translation struct {
	Language   string        `json:"language"`
	Text       string        `json:"text"`
	Service    string        `json:"service"`
	Confidence float64       `json:"confidence"`
	Latency    time.Duration `json:"latency"`
}

// Limited is implemented by services that reject long requests.
type Limited interface {
	MaxChars() int
}

// Localizer protects URLs, mentions, hashtags and code spans, translates
// through a service and checks the result language.
type Localizer struct {
	svc    TranslationService
	val    *validator.Validator
	logger *slog.Logger
}

// NewLocalizer builds a Localizer. A nil validator skips the language check.
func NewLocalizer(svc TranslationService, val *validator.Validator, logger *slog.Logger) *Localizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Localizer{svc: svc, val: val, logger: logger}
}

// Localize translates text into a single target language.
func (l *Localizer) Localize(ctx context.Context, text, source, target string) (*Translation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to localize")
	}
	if _, err := validator.BaseLanguage(target); err != nil {
		return nil, err
	}

	protected, markers := placeholder.Protect(text, placeholder.Localization)

	pieces := []string{protected}
	if lim, ok := l.svc.(Limited); ok {
		pieces = chunker.Chunk(protected, lim.MaxChars())
	}

	out := &Translation{Language: target, Service: l.svc.Name(), Confidence: 1}
	translated := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		res, err := l.svc.Translate(ctx, TranslateRequest{Text: piece, SourceLang: source, TargetLang: target})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.svc.Name(), err)
		}
		translated = append(translated, res.TranslatedText)
		out.Latency += res.Latency
		out.Confidence = min(out.Confidence, res.Confidence)
	}

	joined := strings.Join(translated, "\n\n")
	if missing := placeholder.Validate(joined, markers); len(missing) > 0 {
		l.logger.Warn("placeholders lost in translation", "target", target, "missing", missing)
	}
	out.Text = placeholder.Restore(joined, markers)

	if l.val != nil {
		if ok, err := l.val.IsValid(out.Text, target); !ok {
			return nil, fmt.Errorf("language check failed: %w", err)
		}
	}
	return out, nil
}

// LocalizeAll translates into every target. Failed targets are logged and
// skipped; an error is returned only when every target failed.
func (l *Localizer) LocalizeAll(ctx context.Context, text, source string, targets []string) ([]Translation, error) {
	var (
		results []Translation
		lastErr error
	)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		tr, err := l.Localize(ctx, text, source, target)
		if err != nil {
			l.logger.Warn("localization failed", "target", target, "service", l.svc.Name(), "error", err)
			lastErr = err
			continue
		}
		l.logger.Info("localized", "target", target, "service", tr.Service, "latency", tr.Latency)
		results = append(results, *tr)
	}
	if len(results) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all %d localizations failed: %w", len(targets), lastErr)
	}
	return results, nil
}

// NewService selects a localization backend by name.
func NewService(cfg ServiceConfig, llm *LLMService) (TranslationService, error) {
	switch cfg.Service {
	case "", "llm":
		if llm == nil {
			return nil, fmt.Errorf("llm translator needs a generator")
		}
		return llm, nil
	case "google":
		return NewGoogleService(cfg.Credentials), nil
	case "mymemory":
		return NewMyMemoryService(cfg.Email, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown translator service: %s", cfg.Service)
	}
}
