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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/postcraft/internal/chunker"
	"github.com/valpere/postcraft/internal/markdown"
	"github.com/valpere/postcraft/internal/store"
)

var (
	postsUser   string
	postsLimit  int
	postsFormat string
	postsOutput string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse stored posts",
	Long:  `List, inspect, export and delete stored posts, and show refinement statistics.`,
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored posts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, postsUser)
		if err != nil {
			return err
		}

		posts, err := db.ListPosts(ctx, userID, postsLimit)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		if len(posts) == 0 {
			fmt.Println("No posts stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tITER\tEARLY\tPREVIEW")
		for _, p := range posts {
			source := "-"
			if p.Source != nil {
				source = p.Source.Type
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\n",
				p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"), source,
				p.IterationsUsed, p.ExitedEarly, chunker.Preview(p.Content, 10))
		}
		return w.Flush()
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a post with its refinement outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := db.GetPost(ctx, args[0])
		if err != nil {
			return err
		}
		translations, err := db.PostTranslations(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load translations: %w", err)
		}

		fmt.Printf("ID:          %s\n", p.ID)
		fmt.Printf("Created:     %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Input:       %s\n", chunker.Preview(p.Input, 15))
		if p.Source != nil {
			fmt.Printf("Source:      %s %s\n", p.Source.Type, p.Source.Title)
			if p.Source.Language != "" {
				fmt.Printf("Language:    %s\n", p.Source.Language)
			}
		}
		if p.Generator != "" {
			fmt.Printf("Generator:   %s\n", p.Generator)
		}
		fmt.Printf("Iterations:  %d (exited early: %v)\n", p.IterationsUsed, p.ExitedEarly)
		fmt.Printf("Termination: %s\n\n", p.TerminationReason)
		fmt.Println(p.Content)
		for _, tr := range translations {
			fmt.Printf("\n--- %s (%s) ---\n%s\n", tr.Language, tr.Service, tr.Text)
		}
		return nil
	},
}

var postsHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show every revision of a post with the feedback that produced it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.GetPost(ctx, args[0]); err != nil {
			return err
		}
		versions, err := db.PostHistory(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(versions) == 0 {
			fmt.Println("The first draft was accepted without revisions.")
			return nil
		}

		for _, v := range versions {
			fmt.Printf("=== Version %d (iteration %d, %s) ===\n",
				v.VersionNumber, v.ProducedAtIteration, v.CreatedAt.Local().Format("15:04:05"))
			if v.Feedback != "" {
				fmt.Printf("Feedback: %s\n\n", strings.TrimSpace(v.Feedback))
			}
			fmt.Printf("%s\n\n", v.Content)
		}
		return nil
	},
}

var postsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show refinement statistics",
	Long: `Show how refinement runs ended. A high cap-hit ratio means drafts rarely
meet the quality targets within the iteration cap; consider retuning the
pipeline thresholds or raising max_iterations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := resolveUser(ctx, db, postsUser)
		if err != nil {
			return err
		}

		stats, err := db.Stats(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total posts:     %d\n", stats.TotalPosts)
		fmt.Printf("Exited early:    %d\n", stats.ExitedEarly)
		fmt.Printf("Cap reached:     %d\n", stats.CapReached)
		fmt.Printf("Cap-hit ratio:   %.1f%%\n", stats.CapHitRatio*100)
		fmt.Printf("Mean iterations: %.2f\n", stats.MeanIterations)
		fmt.Printf("Max iterations:  %d\n", stats.MaxIterations)
		return nil
	},
}

var postsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a post as html, text or json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := db.GetPost(ctx, args[0])
		if err != nil {
			return err
		}

		out, err := exportPost(ctx, db, p, postsFormat)
		if err != nil {
			return err
		}
		return writeOutput(postsOutput, out)
	},
}

func exportPost(ctx context.Context, db *store.Store, p *store.Post, format string) (string, error) {
	switch format {
	case "html":
		return markdown.ToHTML([]byte(p.Content)), nil
	case "text":
		return markdown.ToPlainText([]byte(p.Content)), nil
	case "json":
		history, err := db.PostHistory(ctx, p.ID)
		if err != nil {
			return "", err
		}
		translations, err := db.PostTranslations(ctx, p.ID)
		if err != nil {
			return "", err
		}
		data, err := json.MarshalIndent(struct {
			*store.Post
			History      any `json:"history"`
			Translations any `json:"translations,omitempty"`
		}{p, history, translations}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode post: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown format %q (use html, text or json)", format)
	}
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeletePost(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		fmt.Printf("Deleted post: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)

	postsListCmd.Flags().StringVarP(&postsUser, "user", "u", "", "Only posts of this user (ID or email)")
	postsListCmd.Flags().IntVarP(&postsLimit, "limit", "n", 20, "Maximum number of posts (0 = all)")
	postsStatsCmd.Flags().StringVarP(&postsUser, "user", "u", "", "Only posts of this user (ID or email)")
	postsExportCmd.Flags().StringVarP(&postsFormat, "format", "f", "html", "Export format: html, text or json")
	postsExportCmd.Flags().StringVarP(&postsOutput, "output", "o", "", "Write to a file instead of stdout")

	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsShowCmd)
	postsCmd.AddCommand(postsHistoryCmd)
	postsCmd.AddCommand(postsStatsCmd)
	postsCmd.AddCommand(postsExportCmd)
	postsCmd.AddCommand(postsDeleteCmd)
}
