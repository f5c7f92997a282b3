// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
)

// RegulatorInterface is the collaborator the resolver asks to turn an
// identity string into an Authorizer, with lazy provisioning on first
// contact.
type RegulatorInterface interface {
	// NewAuthorizer resolves identity to a user and returns an Authorizer
	// scoped to it. Returns an UnknownUser-tagged error (see
	// internal/apperror) if identity has never been provisioned.
	NewAuthorizer(ctx context.Context, identity string) (authorization.AuthorizerInterface, error)

	// EnsureUser provisions identity (idempotently) and returns an
	// Authorizer for it, used after NewAuthorizer signals UnknownUser.
	EnsureUser(ctx context.Context, identity, name string) (authorization.AuthorizerInterface, error)
}
