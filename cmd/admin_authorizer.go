// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package cmd

import (
	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/openfga"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/spf13/cobra"
)

// newBootstrapAuthorizer builds an Authorizer directly against the tuple
// store from the fga-* flags shared by the admin subcommands, without
// going through the HTTP server or any of its own authorization checks.
func newBootstrapAuthorizer(cmd *cobra.Command) *authorization.Authorizer {
	apiUrl, _ := cmd.Flags().GetString("fga-api-url")
	apiToken, _ := cmd.Flags().GetString("fga-api-token")
	storeId, _ := cmd.Flags().GetString("fga-store-id")
	modelId, _ := cmd.Flags().GetString("fga-model-id")

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	scheme, host, err := parseURL(apiUrl)
	if err != nil {
		panic(err)
	}

	wpool := pool.NewWorkerPool(1, tracer, monitor, logger)
	fgaClient := openfga.NewClient(
		openfga.NewConfig(scheme, host, storeId, apiToken, modelId, false, 50, 100, wpool, tracer, monitor, logger),
	)

	return authorization.NewAuthorizer(nil, fgaClient, wpool, tracer, monitor, logger)
}

func addBootstrapFlags(cmd *cobra.Command) {
	cmd.Flags().String("fga-api-url", "", "The openfga API URL")
	cmd.Flags().String("fga-api-token", "", "The openfga API token")
	cmd.Flags().String("fga-store-id", "", "The openfga store")
	cmd.Flags().String("fga-model-id", "", "The openfga model")
	cmd.Flags().String("user", "", "The admin user's identity string")
	cmd.MarkFlagRequired("fga-api-url")
	cmd.MarkFlagRequired("fga-api-token")
	cmd.MarkFlagRequired("fga-store-id")
	cmd.MarkFlagRequired("user")
}
