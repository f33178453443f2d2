package stages

import (
	"log/slog"

	"github.com/valpere/postcraft/internal/detector"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/orchestrator"
)

// Deps are the collaborators of a full post pipeline. Localizer and Saver
// are optional.
type Deps struct {
	Extractor   SourceExtractor
	Detector    *detector.Detector
	Preferences PreferenceSource
	PrefsOpts   PreferencesOptions
	Generator   generator.Generator
	Refinement  orchestrator.Stage
	Localizer   PostLocalizer
	Targets     []string
	Saver       PostSaver
	// DuplicateThreshold enables the near-duplicate warning when the Saver
	// can also search posts.
	DuplicateThreshold float64
	Logger             *slog.Logger
}

// Pipeline returns the stages in execution order: input, preferences,
// initial generation, refinement, then localization and finalization when
// configured.
func Pipeline(d Deps) []orchestrator.Stage {
	if d.PrefsOpts.Logger == nil {
		d.PrefsOpts.Logger = d.Logger
	}
	list := []orchestrator.Stage{
		NewInput(d.Extractor, d.Detector, d.Logger),
		NewPreferences(d.Preferences, d.PrefsOpts),
		NewDraft(d.Generator, d.Logger),
		d.Refinement,
	}
	if d.Localizer != nil && len(d.Targets) > 0 {
		list = append(list, NewLocalize(d.Localizer, d.Targets, d.Logger))
	}
	if d.Saver != nil {
		fin := NewFinalize(d.Saver, d.Generator.Name(), d.Logger)
		if finder, ok := d.Saver.(DuplicateFinder); ok {
			fin.WithDuplicateCheck(finder, d.DuplicateThreshold)
		}
		list = append(list, fin)
	}
	return list
}
