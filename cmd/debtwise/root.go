// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Debtwise CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debtwise",
		Short: "Debtwise - debt payoff planner backend",
		Long: `Debtwise is the backend for the Debtwise debt payoff planner.
It serves the authentication API and manages the user database.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
