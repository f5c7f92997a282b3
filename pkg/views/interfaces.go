// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package views

import (
	"context"

	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
)

// SubjectDirectoryInterface is the narrow directory surface the views use
// to resolve a subject_id to a user or a group, and to hydrate names for
// display.
type SubjectDirectoryInterface interface {
	FindUserByIdentity(ctx context.Context, identity string) (*storage.User, error)
	FindGroupByID(ctx context.Context, id string) (*storage.Group, error)
	ListUserGroups(ctx context.Context, userID string) ([]string, error)
}
