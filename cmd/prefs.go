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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/postcraft/internal/style"
)

var (
	prefsUser      string
	prefsFormat    string
	prefsEffective bool
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage a user's writing preferences",
	Long: `Show, change, import and audit a user's writing preferences.

Fields: writing_style, post_structure, tone, custom_instructions,
post_length.min, post_length.max, topics, industry_template, emoji_usage,
hashtag_usage, sentence_structure, opening_hook_style.`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, prefsUser)
		if err != nil {
			return err
		}
		p, found, err := db.GetPreferences(ctx, userID)
		if err != nil {
			return err
		}
		if !found && !prefsEffective {
			fmt.Println("No preferences stored; defaults apply (use --effective to see them).")
			return nil
		}
		if prefsEffective {
			p = style.Resolve(p)
		}

		out, err := encodePrefs(p, prefsFormat)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func encodePrefs(p style.Preferences, format string) (string, error) {
	switch format {
	case "", "yaml":
		return style.EncodeYAML(p)
	case "json":
		s, err := style.EncodeJSON(p)
		return s + "\n", err
	case "template":
		return style.Build(p).String() + "\n", nil
	default:
		return "", fmt.Errorf("unknown format %q (use yaml, json or template)", format)
	}
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <field=value>...",
	Short: "Change one or more preference fields",
	Example: `  postcraft prefs set --user me@example.com tone=analytical post_structure=list-based
  postcraft prefs set --user me@example.com topics="go, platform teams"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, prefsUser)
		if err != nil {
			return err
		}
		p, _, err := db.GetPreferences(ctx, userID)
		if err != nil {
			return err
		}

		for _, arg := range args {
			field, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected field=value, got %q", arg)
			}
			if err := p.Set(strings.TrimSpace(field), strings.TrimSpace(value)); err != nil {
				return err
			}
		}

		if err := db.SavePreferences(ctx, userID, p); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
		fmt.Printf("Updated %d field(s)\n", len(args))
		return nil
	},
}

var prefsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace preferences with the contents of a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		p, err := style.LoadFile(args[0])
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, prefsUser)
		if err != nil {
			return err
		}
		if err := db.SavePreferences(ctx, userID, p); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
		fmt.Printf("Imported preferences from %s\n", args[0])
		return nil
	},
}

var prefsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every saved preference set, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, prefsUser)
		if err != nil {
			return err
		}
		entries, err := db.PreferenceHistory(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No preference history.")
			return nil
		}

		for _, e := range entries {
			out, err := encodePrefs(e.Preferences, prefsFormat)
			if err != nil {
				return err
			}
			fmt.Printf("=== %s ===\n%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)

	prefsCmd.PersistentFlags().StringVarP(&prefsUser, "user", "u", "", "User ID or email (required)")
	prefsCmd.MarkPersistentFlagRequired("user")
	prefsShowCmd.Flags().StringVarP(&prefsFormat, "format", "f", "yaml", "Output format: yaml, json or template")
	prefsShowCmd.Flags().BoolVar(&prefsEffective, "effective", false, "Show stored preferences merged with defaults")
	prefsHistoryCmd.Flags().StringVarP(&prefsFormat, "format", "f", "yaml", "Output format: yaml, json or template")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsImportCmd)
	prefsCmd.AddCommand(prefsHistoryCmd)
}
