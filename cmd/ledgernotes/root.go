package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the LedgerNotes CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgernotes",
		Short: "LedgerNotes - a personal study-notes tracker",
		Long: `LedgerNotes serves a set of accounting study notes with per-user
accounts and a completed-notes checklist, backed by a flat-file JSON store.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewValidateCatalogCmd())

	return cmd
}
