// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/canonical/identity-platform-admin-ui/pkg/responses"
)

const (
	headerIdentity   = "x-remote-user-identity"
	headerName       = "x-remote-user-name"
	headerImpersonate = "x-impersonate"
	headerSkipAuthz  = "x-osrd-skip-authz"

	roleAdmin = "admin"
)

// Resolver is the Authentication Resolver: a chi middleware that turns the
// trusted reverse-proxy headers of an incoming request into a Principal and
// attaches it to the request context, so every downstream handler reads
// authentication and authorization decisions from one place.
type Resolver struct {
	regulator RegulatorInterface

	authorizationEnabled bool

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewResolver(regulator RegulatorInterface, authorizationEnabled bool, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Resolver {
	r := new(Resolver)

	r.regulator = regulator
	r.authorizationEnabled = authorizationEnabled
	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}

// Authenticate implements the header-resolution algorithm: disabled
// authorization and the skip-authz header both short-circuit to
// BypassAuthorization before an identity is ever looked up; a missing
// identity header is Unauthenticated, never an error; first contact with
// an unknown identity provisions it and retries exactly once; impersonation
// requires the Admin role and surfaces its own distinct errors.
func (r *Resolver) Authenticate(ctx context.Context, header http.Header) (Principal, error) {
	ctx, span := r.tracer.Start(ctx, "authentication.Resolver.Authenticate")
	defer span.End()

	identity := header.Get(headerIdentity)
	name := header.Get(headerName)
	impersonate := header.Get(headerImpersonate)
	skipAuthz := header.Get(headerSkipAuthz) != ""

	if !r.authorizationEnabled {
		r.logger.Debugf("authorization disabled, bypassing for identity %q", identity)
		return BypassAuthorization{Identity: identity}, nil
	}

	if skipAuthz {
		r.logger.Debugf("authorization skipped by request for identity %q", identity)
		return BypassAuthorization{Identity: identity}, nil
	}

	if identity == "" {
		return Unauthenticated{}, nil
	}

	authorizer, err := r.regulator.NewAuthorizer(ctx, identity)
	if apperror.Is(err, "UnknownUser") {
		authorizer, err = r.regulator.EnsureUser(ctx, identity, name)
	}
	if err != nil {
		return nil, err
	}

	if impersonate == "" {
		return Authenticated{Authorizer: authorizer, Identity: identity, Name: name}, nil
	}

	isAdmin, err := authorizer.CheckRole(ctx, roleAdmin)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperror.ForbiddenImpersonation("impersonation requires the admin role")
	}

	impersonatedAuthorizer, err := r.regulator.NewAuthorizer(ctx, impersonate)
	if apperror.Is(err, "UnknownUser") {
		return nil, apperror.ImpersonatedUserNotFound(impersonate)
	}
	if err != nil {
		return nil, err
	}

	return Authenticated{
		Authorizer:     impersonatedAuthorizer,
		Identity:       impersonate,
		ImpersonatedBy: identity,
	}, nil
}

// Middleware attaches the resolved Principal to the request context, or
// writes the appropriate error response and stops the chain.
func (r *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			principal, err := r.Authenticate(req.Context(), req.Header)
			if err != nil {
				r.writeError(w, err)
				return
			}

			next.ServeHTTP(w, req.WithContext(ContextWithPrincipal(req.Context(), principal)))
		})
	}
}

func (r *Resolver) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal authentication failure"

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status = appErr.Status
		message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responses.Response{Status: status, Message: message})
}
