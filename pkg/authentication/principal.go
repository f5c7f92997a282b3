// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package authentication resolves the caller's Principal from trusted
// reverse-proxy headers, lazily provisions first-time identities, and
// implements admin impersonation.
package authentication

import (
	"context"

	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
)

// Principal is a closed tagged union of every authentication outcome: a
// request either carries no identity, carries one and it authenticated, or
// the caller opted into a trusted bypass. The unexported marker method
// keeps the set closed to the three concrete types below, so a type switch
// over Principal is exhaustive by construction.
type Principal interface {
	isPrincipal()
}

// Unauthenticated means no identity header was presented at all.
type Unauthenticated struct{}

func (Unauthenticated) isPrincipal() {}

// Authenticated carries the resolved Authorizer for the request's caller
// (or, under impersonation, the impersonated identity — ImpersonatedBy
// records who initiated it).
type Authenticated struct {
	Authorizer     authorization.AuthorizerInterface
	Identity       string
	Name           string
	ImpersonatedBy string
}

func (Authenticated) isPrincipal() {}

// BypassAuthorization means authorization is disabled for the deployment or
// the caller presented the skip-authz header; no identity was resolved
// (Identity only echoes the identity header, possibly empty) and every
// authorization check must be treated as vacuously allowed.
type BypassAuthorization struct {
	Identity string
}

func (BypassAuthorization) isPrincipal() {}

type principalContextKey struct{}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext returns the request's Principal, or Unauthenticated if none
// was ever attached — e.g. a handler invoked outside the resolver's
// middleware chain, which should never happen in production wiring but
// must not panic in tests that construct a bare context.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalContextKey{}).(Principal); ok {
		return p
	}
	return Unauthenticated{}
}
