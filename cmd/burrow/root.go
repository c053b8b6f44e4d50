// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Burrow CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burrow",
		Short: "Burrow - a real-time shared virtual space server",
		Long: `Burrow runs a real-time multi-user virtual space: worlds of rooms
and areas that users move through, talk in, and furnish with
interactable objects over a binary websocket protocol.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
