// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ledgernotes/ledgernotes/internal/catalog"
)

// NewValidateCatalogCmd creates the validate-catalog subcommand.
func NewValidateCatalogCmd() *cobra.Command {
	var catalogPath string
	var notesDir string

	cmd := &cobra.Command{
		Use:   "validate-catalog",
		Short: "Validate a catalog file without starting the server",
		Long: `Validates a catalog YAML file: subject IDs, names, link shapes, and
(when --notes-dir is given) that app-relative links resolve to note files.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch catalog errors early:
  ledgernotes validate-catalog --catalog-path catalog.yaml --notes-dir notes/`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runValidateCatalog(catalogPath, notesDir)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog-path", "", "catalog YAML file (empty validates the embedded default)")
	cmd.Flags().StringVar(&notesDir, "notes-dir", "", "directory of note pages to check links against")

	return cmd
}

func runValidateCatalog(catalogPath, notesDir string) error {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	errs := cat.Validate(notesDir, nil)
	if len(errs) > 0 {
		for _, e := range errs {
			slog.Error("catalog validation failed", "detail", e.Error())
		}
		return fmt.Errorf("validation failed: %d problems in %d subjects", len(errs), cat.Len())
	}

	slog.Info("catalog valid", "subjects", cat.Len())
	return nil
}
