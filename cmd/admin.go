// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package cmd

import (
	"github.com/spf13/cobra"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the admin role",
	Long:  `Grant or revoke the admin role directly against the tuple store, bypassing the authorization API. Used to bootstrap the first admin.`,
}

func init() {
	rootCmd.AddCommand(adminCmd)
}
