// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
)

// User is the directory's row shape for a provisioned identity. It is
// deliberately thin: group membership and role assignment live in the
// typed relation graph, not here.
type User struct {
	ID       string
	Identity string
	Name     string
}

// SubjectFilter narrows ListSubjects to a page of users, used by the
// typed-ahead subject picker on the grant-sharing view.
type SubjectFilter struct {
	Query string
	Page  int64
	Size  int64
}

// DirectoryRepository is the narrow user/group collaborator the Regulator
// drives. It is not the tuple store: group membership here is about who a
// group's members are for display and provisioning purposes, the typed
// relation graph remains the sole source of truth for what membership
// grants.
type DirectoryRepository struct {
	db DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewDirectoryRepository(db DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *DirectoryRepository {
	r := new(DirectoryRepository)

	r.db = db
	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}

// Group is the directory's row shape for a named group. Membership lives in
// group_member; what a group's membership grants lives in the typed
// relation graph, not here.
type Group struct {
	ID   string
	Name string
}

// FindGroupByID looks up a group by id. Returns ErrNotFound if no such
// group is provisioned, used by callers resolving a grant-sharing
// subject_id that might name either a user or a group.
func (r *DirectoryRepository) FindGroupByID(ctx context.Context, id string) (*Group, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.FindGroupByID")
	defer span.End()

	row := r.db.Statement().Select("id", "name").
		From(`"group"`).
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx)

	var groupID, name string
	if err := row.Scan(&groupID, &name); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("unable to scan group result, %w", err)
	}

	return &Group{ID: groupID, Name: name}, nil
}

// FindUserByIdentity looks up a provisioned user by the identity string a
// reverse proxy vouches for. Returns ErrNotFound if the identity has never
// been provisioned.
func (r *DirectoryRepository) FindUserByIdentity(ctx context.Context, identity string) (*User, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.FindUserByIdentity")
	defer span.End()

	row := r.db.Statement().Select("id", "identity", "name").
		From(`"user"`).
		Where(sq.Eq{"identity": identity}).
		QueryRowContext(ctx)

	return scanUser(row)
}

func scanUser(row sq.RowScanner) (*User, error) {
	var id, identity, name string

	err := row.Scan(&id, &identity, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to scan user result, %w", err)
	}

	return &User{ID: id, Identity: identity, Name: name}, nil
}

// EnsureUser provisions a user row for identity if one does not already
// exist, and is a no-op otherwise. Called exactly once, by the
// authentication resolver's retry-on-UnknownUser path, never speculatively.
func (r *DirectoryRepository) EnsureUser(ctx context.Context, identity, name string) (*User, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.EnsureUser")
	defer span.End()

	if user, err := r.FindUserByIdentity(ctx, identity); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	row := r.db.Statement().Insert(`"user"`).
		Columns("identity", "name").
		Values(identity, name).
		Suffix("ON CONFLICT (identity) DO UPDATE SET name = EXCLUDED.name").
		Suffix("RETURNING id, identity, name").
		QueryRowContext(ctx)

	return scanUser(row)
}

// ListUserGroups lists the group ids the user belongs to, for the
// user-groups view and for hydrating group-inherited access.
func (r *DirectoryRepository) ListUserGroups(ctx context.Context, userID string) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.ListUserGroups")
	defer span.End()

	rows, err := r.db.Statement().Select("group_id").
		From("group_member").
		Where(sq.Eq{"user_id": userID}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list user groups, %w", err)
	}
	defer rows.Close()

	groups := make([]string, 0)
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("unable to scan ListUserGroups result, %w", err)
		}
		groups = append(groups, groupID)
	}

	return groups, nil
}

// ListGroupMembers lists the user ids belonging to a group, supplementing
// the user-groups view's hydration of a group's roster.
func (r *DirectoryRepository) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.ListGroupMembers")
	defer span.End()

	rows, err := r.db.Statement().Select("user_id").
		From("group_member").
		Where(sq.Eq{"group_id": groupID}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list group members, %w", err)
	}
	defer rows.Close()

	members := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("unable to scan ListGroupMembers result, %w", err)
		}
		members = append(members, userID)
	}

	return members, nil
}

// ListSubjects paginates over the identities of every user whose identity
// matches filter.Query, for the grant-sharing subject picker. Only the user
// table is queried; groups are not listed.
func (r *DirectoryRepository) ListSubjects(ctx context.Context, filter SubjectFilter) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "storage.DirectoryRepository.ListSubjects")
	defer span.End()

	pageSize := PageSize(filter.Size)
	offset := Offset(filter.Page, pageSize)

	query := r.db.Statement().Select("identity").From(`"user"`)
	if filter.Query != "" {
		query = query.Where(sq.ILike{"identity": "%" + filter.Query + "%"})
	}

	rows, err := query.OrderBy("identity").Limit(pageSize).Offset(offset).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list subjects, %w", err)
	}
	defer rows.Close()

	subjects := make([]string, 0, pageSize)
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("unable to scan ListSubjects result, %w", err)
		}
		subjects = append(subjects, identity)
	}

	return subjects, nil
}
