/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/config"
	"github.com/valpere/postcraft/internal/detector"
	"github.com/valpere/postcraft/internal/extractor"
	"github.com/valpere/postcraft/internal/loop"
	"github.com/valpere/postcraft/internal/markdown"
	"github.com/valpere/postcraft/internal/orchestrator"
	"github.com/valpere/postcraft/internal/refiner"
	"github.com/valpere/postcraft/internal/reviewer"
	"github.com/valpere/postcraft/internal/stages"
	"github.com/valpere/postcraft/internal/store"
	"github.com/valpere/postcraft/internal/style"
	"github.com/valpere/postcraft/internal/translator"
)

var (
	genUser      string
	genOutput    string
	genFormat    string
	genPrefsFile string
	genProvider  string
	genModel     string
	genNoSave    bool
	genLocalize  []string

	genMaxIterations int
	genLengthMin     int
	genLengthMax     int
	genTagMin        int
	genTagMax        int
	genLengthCeiling int
	genTagCeiling    int
	genSymbolMin     float64
	genSymbolMax     float64

	genStyle     string
	genStructure string
	genTone      string
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic | text | url | @file | ->",
	Short: "Generate a LinkedIn post",
	Long: `Generate a LinkedIn post from a topic, pasted notes, a file (@path),
stdin (-) or a web page URL.

The pipeline runs: input processing, preference loading, initial drafting,
the review/revise refinement loop, optional localization, and saving.

The final post goes to stdout (or --output). The termination reason and the
number of refinement iterations go to stderr.

Examples:
  postcraft generate "Lessons from our first on-call rotation"
  postcraft generate https://go.dev/blog/go1.24 --user me@example.com
  postcraft generate @notes.txt --localize de,uk --max-iterations 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		pipeline, err := pipelineOverrides(cmd, cfg.Pipeline)
		if err != nil {
			return err
		}

		gen, err := buildGenerator(genProvider, genModel)
		if err != nil {
			return err
		}

		var db *store.Store
		if !genNoSave || genUser != "" {
			db, err = openStore()
			if err != nil {
				return err
			}
			defer db.Close()
		}

		userID := ""
		if db != nil {
			if userID, err = resolveUser(ctx, db, genUser); err != nil {
				return err
			}
		}

		refinement := loop.New(
			reviewer.New(gen, pipeline.Thresholds, logger),
			refiner.New(gen, refiner.Options{
				Thresholds:        pipeline.Thresholds,
				RegressionRetries: pipeline.RegressionRetries,
				Logger:            logger,
			}),
			loop.Config{MaxIterations: pipeline.MaxIterations},
			logger,
		)

		deps := stages.Deps{
			Extractor: extractor.New(cfg.Extractor, logger),
			Detector:  detector.New(),
			PrefsOpts: stages.PreferencesOptions{
				File: genPrefsFile,
				Override: style.Preferences{
					WritingStyle:  style.WritingStyle(genStyle),
					PostStructure: style.PostStructure(genStructure),
					Tone:          style.Tone(genTone),
				},
			},
			Generator:          gen,
			Refinement:         refinement,
			DuplicateThreshold: pipeline.DuplicateThreshold,
			Logger:             logger,
		}
		if db != nil {
			deps.Preferences = db
			if !genNoSave {
				deps.Saver = db
			}
		}
		if len(genLocalize) > 0 {
			loc, err := buildLocalizer(gen, genLocalize)
			if err != nil {
				return err
			}
			deps.Localizer = loc
			deps.Targets = genLocalize
		}

		orch := orchestrator.New(stages.Pipeline(deps), orchestrator.OrchestratorConfig{
			StageTimeout: pipeline.StageTimeout,
		}, logger)

		wc := internal.NewWorkContext(map[string]any{
			internal.KeyInput:  input,
			internal.KeyUserID: userID,
		})
		runID := uuid.NewString()
		fmt.Fprintf(os.Stderr, "Generating post with %s (run %s)...\n", gen.Name(), runID)
		start := time.Now()

		wc, err = orch.Execute(ctx, wc)
		if errors.Is(err, orchestrator.ErrCancelled) {
			return emitCancelled(wc, genOutput, err)
		}
		if err != nil {
			return err
		}

		res, err := loop.ResultFrom(wc)
		if err != nil {
			return err
		}

		rendered, err := renderResult(wc, res)
		if err != nil {
			return err
		}
		if err := writeOutput(genOutput, rendered); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Termination: %s\n", res.TerminationReason)
		fmt.Fprintf(os.Stderr, "Iterations used: %d/%d (exited early: %v) in %s\n",
			res.IterationsUsed, pipeline.MaxIterations, res.ExitedEarly, time.Since(start).Round(time.Millisecond))
		if v, ok := wc.Get(internal.KeySimilarPost); ok {
			if sp, ok := v.(store.SimilarPost); ok {
				fmt.Fprintf(os.Stderr, "Warning: %.0f%% similar to post %s\n", sp.Similarity*100, sp.ID)
			}
		}
		if id := wc.String(internal.KeyPostID); id != "" {
			fmt.Fprintf(os.Stderr, "Saved as post %s\n", id)
		}
		return nil
	},
}

// pipelineOverrides applies the threshold flags that were set on cmd to base.
func pipelineOverrides(cmd *cobra.Command, base config.Pipeline) (config.Pipeline, error) {
	p := base
	flags := cmd.Flags()
	if flags.Changed("max-iterations") {
		p.MaxIterations = genMaxIterations
	}
	if flags.Changed("length-min") {
		p.LengthBand.Min = genLengthMin
	}
	if flags.Changed("length-max") {
		p.LengthBand.Max = genLengthMax
	}
	if flags.Changed("length-ceiling") {
		p.LengthCeiling = genLengthCeiling
	}
	if flags.Changed("tag-min") {
		p.TagBand.Min = genTagMin
	}
	if flags.Changed("tag-max") {
		p.TagBand.Max = genTagMax
	}
	if flags.Changed("tag-ceiling") {
		p.TagCeiling = genTagCeiling
	}
	if flags.Changed("symbol-min") {
		p.SymbolDensityBand.Min = genSymbolMin
	}
	if flags.Changed("symbol-max") {
		p.SymbolDensityBand.Max = genSymbolMax
	}
	if p.MaxIterations < 1 {
		return p, fmt.Errorf("--max-iterations must be at least 1")
	}
	if err := p.Thresholds.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// emitCancelled writes the last known draft of a cancelled run and returns
// the cancellation, joined with any write failure.
func emitCancelled(wc *internal.WorkContext, output string, cancelErr error) error {
	res, err := loop.ResultFrom(wc)
	if err != nil || res.FinalDraft == "" {
		return cancelErr
	}
	fmt.Fprintf(os.Stderr, "Cancelled after %d iteration(s); last draft follows.\n", res.IterationsUsed)
	if err := writeOutput(output, res.FinalDraft); err != nil {
		return errors.Join(cancelErr, err)
	}
	return cancelErr
}

type generateOutput struct {
	Post         string                   `json:"post"`
	Result       internal.LoopResult      `json:"result"`
	History      []internal.DraftVersion  `json:"history"`
	Translations []translator.Translation `json:"translations,omitempty"`
	PostID       string                   `json:"post_id,omitempty"`
}

func renderResult(wc *internal.WorkContext, res internal.LoopResult) (string, error) {
	var translations []translator.Translation
	if v, ok := wc.Get(internal.KeyTranslations); ok {
		translations, _ = v.([]translator.Translation)
	}

	switch genFormat {
	case "", "text":
		out := res.FinalDraft
		for _, tr := range translations {
			out += fmt.Sprintf("\n\n--- %s (%s) ---\n%s", tr.Language, tr.Service, tr.Text)
		}
		return out, nil
	case "html":
		return markdown.ToHTML([]byte(res.FinalDraft)), nil
	case "json":
		data, err := json.MarshalIndent(generateOutput{
			Post:         res.FinalDraft,
			Result:       res,
			History:      wc.History,
			Translations: translations,
			PostID:       wc.String(internal.KeyPostID),
		}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown format %q (use text, html or json)", genFormat)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&genUser, "user", "u", "", "User ID or email whose preferences to apply")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the post to a file instead of stdout")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "text", "Output format: text, html or json")
	generateCmd.Flags().StringVar(&genPrefsFile, "prefs-file", "", "YAML preferences file applied over stored preferences")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "Generator provider: ollama, openai, openrouter or mock (default from config)")
	generateCmd.Flags().StringVar(&genModel, "model", "", "Generator model (default from config)")
	generateCmd.Flags().BoolVar(&genNoSave, "no-save", false, "Do not store the post")
	generateCmd.Flags().StringSliceVar(&genLocalize, "localize", nil, "Also localize the post into these languages (BCP 47, comma-separated)")

	addThresholdFlags(generateCmd)

	generateCmd.Flags().StringVar(&genStyle, "style", "", "Writing style for this run: storytelling, technical, casual, formal, professional")
	generateCmd.Flags().StringVar(&genStructure, "structure", "", "Post structure for this run: storytelling, list-based, problem-solution, narrative, custom")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "Tone for this run: enthusiastic, analytical, inspirational, professional")
}

// addThresholdFlags registers the per-run pipeline overrides read by
// pipelineOverrides.
func addThresholdFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&genMaxIterations, "max-iterations", loop.DefaultMaxIterations, "Maximum number of revisions")
	f.IntVar(&genLengthMin, "length-min", 0, "Target length band minimum (characters)")
	f.IntVar(&genLengthMax, "length-max", 0, "Target length band maximum (characters)")
	f.IntVar(&genLengthCeiling, "length-ceiling", 0, "Hard length limit (characters)")
	f.IntVar(&genTagMin, "tag-min", 0, "Target hashtag band minimum")
	f.IntVar(&genTagMax, "tag-max", 0, "Target hashtag band maximum")
	f.IntVar(&genTagCeiling, "tag-ceiling", 0, "Hashtag count above which a post must be revised")
	f.Float64Var(&genSymbolMin, "symbol-min", 0, "Target emoji density minimum (percent of characters)")
	f.Float64Var(&genSymbolMax, "symbol-max", 0, "Target emoji density maximum (percent of characters)")
}
