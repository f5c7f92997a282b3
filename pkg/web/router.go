// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/canonical/identity-platform-admin-ui/pkg/authentication"
	"github.com/canonical/identity-platform-admin-ui/pkg/metrics"
	"github.com/canonical/identity-platform-admin-ui/pkg/status"
	"github.com/canonical/identity-platform-admin-ui/pkg/views"
)

// NewRouter wires every authorization view, the authentication resolver
// middleware, and the ambient status/metrics endpoints onto one chi mux.
func NewRouter(resolver *authentication.Resolver, viewsAPI *views.API, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) http.Handler {
	router := chi.NewMux()

	router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		responseTime(monitor, logger),
		middlewareCORS([]string{"*"}),
		resolver.Middleware(),
	)

	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)
	metrics.NewAPI(logger).RegisterEndpoints(router)
	viewsAPI.RegisterEndpoints(router)

	return otelhttp.NewHandler(router, "identity-platform-admin-ui")
}
