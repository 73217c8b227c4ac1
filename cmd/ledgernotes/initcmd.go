// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgernotes/ledgernotes/internal/config"
	"github.com/ledgernotes/ledgernotes/internal/store"
	"github.com/ledgernotes/ledgernotes/internal/xdg"
)

// NewInitCmd creates the init subcommand.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and an empty store document",
		Long: `Creates the data directory and writes an empty store document if one
does not exist yet. Safe to run repeatedly; an existing store is left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runInit(cmd, cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runInit(cmd *cobra.Command, cfg *config.Config) error {
	if err := xdg.EnsureDir(filepath.Dir(cfg.Store.Path)); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	docs, err := store.NewFileStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// Read creates an empty document when the file is absent, and validates
	// an existing one.
	doc, err := docs.Read(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cmd.Printf("store ready at %s (%d users)\n", cfg.Store.Path, len(doc.Users))
	return nil
}
