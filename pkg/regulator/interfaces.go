// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package regulator

import (
	"context"

	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
)

// DirectoryInterface is the narrow user-directory collaborator the
// Regulator drives to resolve identities into provisioned users. It is not
// the tuple store: the Regulator is the one place in the codebase that
// holds both a directory and a tuple store client together.
type DirectoryInterface interface {
	FindUserByIdentity(ctx context.Context, identity string) (*storage.User, error)
	EnsureUser(ctx context.Context, identity, name string) (*storage.User, error)
}
