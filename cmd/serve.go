// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
	"github.com/canonical/identity-platform-admin-ui/internal/config"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring/prometheus"
	"github.com/canonical/identity-platform-admin-ui/internal/openfga"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/canonical/identity-platform-admin-ui/pkg/authentication"
	"github.com/canonical/identity-platform-admin-ui/pkg/regulator"
	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
	"github.com/canonical/identity-platform-admin-ui/pkg/views"
	"github.com/canonical/identity-platform-admin-ui/pkg/web"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve starts the web server",
	Long:  `Launch the web application, list of environment variables is defined by config.EnvSpec in internal/config/specs.go.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	specs := new(config.EnvSpec)

	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel, specs.LogFile)

	monitor := prometheus.NewMonitor("identity-admin-ui", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	wpool := pool.NewWorkerPool(specs.OpenFGAWorkersTotal, tracer, monitor, logger)

	var ofgaClient authorization.AuthzClientInterface
	if specs.AuthorizationEnabled {
		ofgaClient = openfga.NewClient(
			openfga.NewConfig(
				specs.ApiScheme,
				specs.ApiHost,
				specs.StoreId,
				specs.ApiToken,
				specs.ModelId,
				specs.Debug,
				specs.MaxChecksPerBatchCheck,
				specs.MaxTuplesPerWrite,
				wpool,
				tracer,
				monitor,
				logger,
			),
		)
	} else {
		logger.Info("Authorization is disabled, using noop tuple store")
		ofgaClient = openfga.NewNoopClient(tracer, monitor, logger)
	}

	authorizer := authorization.NewAuthorizer(nil, ofgaClient, wpool, tracer, monitor, logger)

	if specs.AuthorizationEnabled {
		if err := authorizer.ValidateModel(context.Background()); err != nil {
			panic("Invalid authorization model provided")
		}
	}

	db := storage.NewDBClient(specs.DSN, specs.DBQueryCacheEnabled, specs.TracingEnabled, tracer, monitor, logger)
	defer db.Close()

	directory := storage.NewDirectoryRepository(db, tracer, monitor, logger)
	reg := regulator.NewRegulator(ofgaClient, directory, wpool, tracer, monitor, logger)
	resolver := authentication.NewResolver(reg, specs.AuthorizationEnabled, tracer, monitor, logger)
	viewsAPI := views.NewAPI(directory, tracer, monitor, logger)

	router := web.NewRouter(resolver, viewsAPI, tracer, monitor, logger)

	logger.Infof("Starting server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Fatal(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until we receive our signal.
	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline.
	srv.Shutdown(ctx)

	logger.Desugar().Sync()

	logger.Info("Shutting down")
	os.Exit(0)
}
