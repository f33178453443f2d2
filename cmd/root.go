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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/postcraft/internal/config"
	"github.com/valpere/postcraft/internal/orchestrator"
)

var version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logFormat string

	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "postcraft",
	Short: "LinkedIn post generator with a review/revise refinement loop",
	Long: `A CLI application that turns a topic, notes or a link into a LinkedIn post.

The first draft is reviewed against length, hashtag and emoji targets and
revised until it passes or the iteration cap is reached.

Configuration is read from postcraft.yaml (current directory or
~/.config/postcraft) and POSTCRAFT_* environment variables.

Use "postcraft generate --help" for generation options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose, logFormat)
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded", "file", v.ConfigFileUsed(), "db", cfg.DBPath, "provider", cfg.Generator.Provider)
		return nil
	},
}

func newLogger(verbose bool, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var failure *orchestrator.StageFailure
		switch {
		case errors.As(err, &failure):
			fmt.Fprintf(os.Stderr, "Error: pipeline stopped at stage %q: %v\n", failure.Stage, failure.Err)
		case errors.Is(err, orchestrator.ErrCancelled):
			fmt.Fprintf(os.Stderr, "Cancelled: %v\n", err)
			os.Exit(130)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		v = config.New(cfgFile)
		v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./postcraft.yaml or ~/.config/postcraft/postcraft.yaml)")
	rootCmd.PersistentFlags().String("db", config.DefaultDBPath, "Database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}
