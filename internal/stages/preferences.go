package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/style"
)

// PreferenceSource returns a user's stored preferences.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, userID string) (style.Preferences, bool, error)
}

// Preferences resolves the effective preferences for the run, in
// increasing precedence: defaults, stored user preferences, a preferences
// file, per-run overrides.
type Preferences struct {
	src      PreferenceSource
	file     string
	override style.Preferences
	logger   *slog.Logger
}

type PreferencesOptions struct {
	File     string
	Override style.Preferences
	Logger   *slog.Logger
}

func NewPreferences(src PreferenceSource, opts PreferencesOptions) *Preferences {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Preferences{src: src, file: opts.File, override: opts.Override, logger: logger}
}

func (s *Preferences) Name() string { return "preferences" }

func (s *Preferences) Run(ctx context.Context, wc *internal.WorkContext) error {
	prefs := style.Defaults()
	origin := "defaults"

	if userID := wc.String(internal.KeyUserID); userID != "" && s.src != nil {
		stored, found, err := s.src.GetPreferences(ctx, userID)
		if err != nil {
			return fmt.Errorf("load preferences for %s: %w", userID, err)
		}
		if found {
			prefs = style.Merge(prefs, stored)
			origin = "user"
		}
	}

	if s.file != "" {
		fromFile, err := style.LoadFile(s.file)
		if err != nil {
			return err
		}
		prefs = style.Merge(prefs, fromFile)
		origin = "file"
	}

	if err := s.override.Validate(); err != nil {
		return fmt.Errorf("per-run preference overrides: %w", err)
	}
	prefs = style.Resolve(style.Merge(prefs, s.override))

	tpl := style.Build(prefs)
	wc.Set(internal.KeyPreferences, prefs)
	wc.Set(internal.KeyStyleTemplate, tpl)

	s.logger.Info("preferences loaded",
		"origin", origin,
		"style", prefs.WritingStyle,
		"structure", prefs.PostStructure,
		"tone", prefs.Tone,
	)
	return nil
}
