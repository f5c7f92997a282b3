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

// grantCmd represents the grant command
var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant the admin role to a user",
	Long:  `Grant the admin role to a user, bootstrapping the first admin before anyone can grant it through the API.`,
	Run: func(cmd *cobra.Command, args []string) {
		user, _ := cmd.Flags().GetString("user")
		auth := newBootstrapAuthorizer(cmd)

		if err := auth.AssignRole(context.Background(), relation.NewRef(relation.TypeUser, user), "admin"); err != nil {
			fmt.Printf("failed to grant admin role: %s", err)
			os.Exit(1)
		}

		fmt.Printf("Granted admin role to: %s\n", user)
	},
}

func init() {
	adminCmd.AddCommand(grantCmd)
	addBootstrapFlags(grantCmd)
}
