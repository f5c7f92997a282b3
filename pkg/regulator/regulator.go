// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package regulator manufactures Authorizers scoped to a resolved identity.
// It is the one place in the codebase that holds both a connected tuple
// store client and the directory, an independent persistence layer the
// authorization core treats as a collaborator rather than as itself a
// source of grants.
package regulator

import (
	"context"
	"errors"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/openfga"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
)

// Regulator resolves identities into Authorizers. Every Authorizer it
// manufactures shares the same underlying tuple store client and worker
// pool; only the resolved user differs between callers.
type Regulator struct {
	client    authorization.AuthzClientInterface
	directory DirectoryInterface

	wpool pool.WorkerPoolInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewRegulator(client authorization.AuthzClientInterface, directory DirectoryInterface, wpool pool.WorkerPoolInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Regulator {
	r := new(Regulator)

	r.client = client
	r.directory = directory
	r.wpool = wpool
	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}

// NewAuthorizer resolves identity to a provisioned user and returns an
// Authorizer scoped to it, sharing the Regulator's tuple store client.
// Returns an UnknownUser-tagged error if identity has never been
// provisioned; the authentication resolver uses that as the signal to
// provision it via EnsureUser and retry exactly once.
func (r *Regulator) NewAuthorizer(ctx context.Context, identity string) (authorization.AuthorizerInterface, error) {
	ctx, span := r.tracer.Start(ctx, "regulator.Regulator.NewAuthorizer")
	defer span.End()

	_, err := r.directory.FindUserByIdentity(ctx, identity)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.UnknownUser(identity)
	}
	if err != nil {
		return nil, err
	}

	return r.authorizerFor(identity), nil
}

// EnsureUser provisions identity (idempotently) and returns an Authorizer
// for it. Called exactly once per request, by the authentication resolver's
// retry-on-UnknownUser path, never speculatively.
func (r *Regulator) EnsureUser(ctx context.Context, identity, name string) (authorization.AuthorizerInterface, error) {
	ctx, span := r.tracer.Start(ctx, "regulator.Regulator.EnsureUser")
	defer span.End()

	_, err := r.directory.EnsureUser(ctx, identity, name)
	if err != nil {
		return nil, err
	}

	return r.authorizerFor(identity), nil
}

// authorizerFor builds an Authorizer bound to identity, sharing the
// Regulator's client and pool.
func (r *Regulator) authorizerFor(identity string) authorization.AuthorizerInterface {
	return authorization.NewAuthorizer(relation.NewRef(relation.TypeUser, identity), r.client, r.wpool, r.tracer, r.monitor, r.logger)
}

// GiveInfraGrantUnchecked writes grantee's grant on infra without any
// privilege check on the caller. It exists exclusively for the
// resource-creation path: the instant a resource is created its creator
// cannot yet hold CanShareOwnership, so the normal delegation check in
// Authorizer.GiveInfraGrant would wrongly deny making them Owner. This is a
// clearly separate method rather than a flag on the checked path precisely
// so new call sites show up as a visible diff; resource-creation handlers
// are the only legitimate caller. It writes the tuple directly rather than
// routing through a throwaway Authorizer, since this operation has no
// caller subject to bind one to.
func (r *Regulator) GiveInfraGrantUnchecked(ctx context.Context, grantee relation.UserExpr, infra string, level authorization.Grant) error {
	ctx, span := r.tracer.Start(ctx, "regulator.Regulator.GiveInfraGrantUnchecked")
	defer span.End()

	tuple, err := relation.NewTuple(grantee, level.String(), relation.NewRef(relation.TypeInfra, infra))
	if err != nil {
		return err
	}

	user, relationName, object := tuple.Values()

	return r.client.WriteTuples(ctx, *openfga.NewTuple(user, relationName, object))
}
