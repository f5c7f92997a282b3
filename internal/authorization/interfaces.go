// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package authorization

import (
	"context"

	fga "github.com/openfga/go-sdk"

	"github.com/canonical/identity-platform-admin-ui/internal/openfga"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
)

// AuthorizerInterface is the surface pkg/views and pkg/regulator drive: the
// domain-level questions ("what can this user do"), never raw tuples. It is
// bound to a single subject for its whole lifetime — every method below
// answers a question about that subject except where a different subject
// (a grantee, a delegation target, a bootstrap assignee) is named
// explicitly as an argument.
type AuthorizerInterface interface {
	InfraGrant(ctx context.Context, infra string) (Grant, error)
	EffectiveInfraGrant(ctx context.Context, infra string) (Grant, error)
	InfraPrivileges(ctx context.Context, infra string) (InfraPrivilegeSet, error)
	InfraPrivilegesBatch(ctx context.Context, infraIDs []string) (map[string]InfraPrivilegeSet, error)
	InfraGrantsBatch(ctx context.Context, infraIDs []string) (map[string]Grant, error)
	AuthorizeInfra(ctx context.Context, infra string, required InfraPrivilege) (Decision, error)
	ListAuthorizedInfra(ctx context.Context, minimum Grant) Authorization[[]string]
	SubjectsWithGrant(ctx context.Context, infra string) (map[string]Grant, error)

	GiveInfraGrant(ctx context.Context, grantee relation.UserExpr, infra string, level Grant) error
	GiveInfraGrantUnchecked(ctx context.Context, grantee relation.UserExpr, infra string, level Grant) error
	RevokeInfraGrants(ctx context.Context, subject relation.UserExpr, infra string) error

	UserRoles(ctx context.Context) ([]string, error)
	CheckRole(ctx context.Context, role string) (bool, error)
	CheckRoles(ctx context.Context, required []string) (bool, error)
	AssignRole(ctx context.Context, subject relation.UserExpr, role string) error
	RevokeRole(ctx context.Context, subject relation.UserExpr, role string) error

	ValidateModel(ctx context.Context) error
}

// AuthzClientInterface is the subset of the tuple store client the
// Authorizer drives, narrow enough to mock without a live OpenFGA server.
type AuthzClientInterface interface {
	Check(ctx context.Context, user, relationName, object string) (bool, error)
	TupleExists(ctx context.Context, t openfga.Tuple) (bool, error)
	ReadTuples(ctx context.Context, user, relationName, object, continuationToken string) (fga.ReadResponse, error)
	ListObjects(ctx context.Context, user, relationName, objectType string) ([]string, error)
	ListUsers(ctx context.Context, object, relationName, userType string) (openfga.UserList, error)

	WriteTuples(ctx context.Context, tuples ...openfga.Tuple) error
	DeleteTuples(ctx context.Context, tuples ...openfga.Tuple) error

	PreparedChecks() openfga.PreparedChecksInterface
	PreparedWrites() openfga.PreparedMutationInterface
	PreparedDeletes() openfga.PreparedMutationInterface

	ReadModel(ctx context.Context) (*fga.AuthorizationModel, error)
	CompareModel(ctx context.Context, model fga.AuthorizationModel) (bool, error)
}
