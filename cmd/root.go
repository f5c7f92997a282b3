// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point every other command attaches itself to in its
// own init().
var rootCmd = &cobra.Command{
	Use:   "identity-platform-admin-ui",
	Short: "Serve and administer the railway infrastructure authorization API",
	Long:  `Serve and administer the railway infrastructure authorization API.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
