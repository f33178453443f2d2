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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/postcraft/internal/detector"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/store"
	"github.com/valpere/postcraft/internal/translator"
	"github.com/valpere/postcraft/internal/validator"
)

// openStore opens the database, creating its directory when needed.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildGenerator creates the configured backend, applying provider and
// model overrides from the command line.
func buildGenerator(provider, model string) (generator.Generator, error) {
	s := cfg.Generator
	if provider != "" {
		s.Provider = provider
	}
	if model != "" {
		s.Model = model
	}
	gen, err := generator.New(s)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return gen, nil
}

// buildLocalizer wires the translator service with a lingua validator
// restricted to the target languages.
func buildLocalizer(gen generator.Generator, targets []string) (*translator.Localizer, error) {
	svc, err := translator.NewService(cfg.Translator, translator.NewLLMService(gen))
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(targets)+1)
	for _, t := range targets {
		base, err := validator.BaseLanguage(t)
		if err != nil {
			return nil, err
		}
		codes = append(codes, base)
	}
	codes = append(codes, "en")

	val := validator.NewWithDetector(detector.New(codes...))
	return translator.NewLocalizer(svc, val, logger), nil
}

// resolveUser accepts a user ID or email. Empty input returns "".
func resolveUser(ctx context.Context, db *store.Store, idOrEmail string) (string, error) {
	if idOrEmail == "" {
		return "", nil
	}
	u, err := db.GetUser(ctx, idOrEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("unknown user %q; create one with \"postcraft users create\"", idOrEmail)
		}
		return "", err
	}
	return u.ID, nil
}

// readInput joins args, or reads a file or stdin when the only argument is
// a path prefixed with @ or "-".
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		switch {
		case args[0] == "-":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read stdin: %w", err)
			}
			return string(data), nil
		case strings.HasPrefix(args[0], "@"):
			data, err := os.ReadFile(strings.TrimPrefix(args[0], "@"))
			if err != nil {
				return "", fmt.Errorf("failed to read input file: %w", err)
			}
			return string(data), nil
		}
	}
	return strings.Join(args, " "), nil
}

// writeOutput writes to path, or stdout when path is empty.
func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
