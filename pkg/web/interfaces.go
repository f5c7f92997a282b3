// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package web

import (
	"context"

	fga "github.com/openfga/go-sdk"

	ofga "github.com/canonical/identity-platform-admin-ui/internal/openfga"
)

// OpenFGAClientInterface is the tuple store surface held and returned by
// ExternalClientsConfig.
type OpenFGAClientInterface interface {
	ReadModel(ctx context.Context) (*fga.AuthorizationModel, error)
	CompareModel(ctx context.Context, model fga.AuthorizationModel) (bool, error)
	Check(ctx context.Context, user, relationName, object string) (bool, error)
	TupleExists(ctx context.Context, t ofga.Tuple) (bool, error)
	ListObjects(ctx context.Context, user, relationName, objectType string) ([]string, error)
	ListUsers(ctx context.Context, object, relationName, userType string) (ofga.UserList, error)
	WriteTuples(ctx context.Context, tuples ...ofga.Tuple) error
	DeleteTuples(ctx context.Context, tuples ...ofga.Tuple) error
}
