// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	trace "go.opentelemetry.io/otel/trace"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
)

// O11yConfig is a wrapper config for all the observability objects
type O11yConfig struct {
	tracer  trace.Tracer
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Tracer returns the tracing object
func (c *O11yConfig) Tracer() trace.Tracer {
	return c.tracer
}

// Monitor returns a monitor object
func (c *O11yConfig) Monitor() monitoring.MonitorInterface {
	return c.monitor
}

// Logger returns a logger object
func (c *O11yConfig) Logger() logging.LoggerInterface {
	return c.logger
}

// NewO11yConfig create an observability config object with a monitor, logger and tracer
func NewO11yConfig(tracer trace.Tracer, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *O11yConfig {
	c := new(O11yConfig)

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}

// ExternalClientsConfig is a wrapper config for the tuple store client, kept
// distinct from OpenFGA() since the authorization middleware and the
// regulator each need a narrower view onto it.
type ExternalClientsConfig struct {
	ofga OpenFGAClientInterface
}

// OpenFGA returns the tuple store client.
func (c *ExternalClientsConfig) OpenFGA() OpenFGAClientInterface {
	return c.ofga
}

// NewExternalClientsConfig creates a third party config object for the
// tuple store client.
func NewExternalClientsConfig(ofga OpenFGAClientInterface) *ExternalClientsConfig {
	c := new(ExternalClientsConfig)

	c.ofga = ofga

	return c
}
