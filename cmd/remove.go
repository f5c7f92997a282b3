// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/identity-platform-admin-ui/internal/relation"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Revoke the admin role from a user",
	Long:  `Revoke the admin role from a user.`,
	Run: func(cmd *cobra.Command, args []string) {
		user, _ := cmd.Flags().GetString("user")
		auth := newBootstrapAuthorizer(cmd)

		if err := auth.RevokeRole(context.Background(), relation.NewRef(relation.TypeUser, user), "admin"); err != nil {
			fmt.Printf("failed to revoke admin role: %s", err)
			os.Exit(1)
		}

		fmt.Printf("Revoked admin role from: %s\n", user)
	},
}

func init() {
	adminCmd.AddCommand(removeCmd)
	addBootstrapFlags(removeCmd)
}
