// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package views exposes the resolved Principal's authorization state over
// HTTP: who the caller is, what they can do on which infra resources, who
// else holds a grant on a resource, and the grant-sharing mutation that
// delegates or revokes access.
package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	"github.com/canonical/identity-platform-admin-ui/pkg/authentication"
	"github.com/canonical/identity-platform-admin-ui/pkg/responses"
	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
)

// API is the core HTTP object implementing the authorization views.
type API struct {
	directory SubjectDirectoryInterface
	validator *validator.Validate

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewAPI(directory SubjectDirectoryInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.directory = directory
	a.validator = validator.New()
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

// RegisterEndpoints hooks up every authorization view to the server mux.
func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/authz/me", a.handleWhoami)
	mux.Get("/api/v0/authz/me/groups", a.handleUserGroups)
	mux.Get("/api/v0/authz/me/infra", a.handleListAuthorizedInfra)
	mux.Post("/api/v0/authz/me/privileges", a.handleUserPrivileges)
	mux.Post("/api/v0/authz/me/grants", a.handleUserGrants)
	mux.Get("/api/v0/authz/{resource_type}/{resource_id}", a.handleSubjectsWithGrantOnResource)
	mux.Post("/api/v0/authz/grants", a.handleUpdateGrants)
}

// authenticatedUser resolves the request's Principal into its bound
// Authorizer and identity string. ok is false for Unauthenticated and for
// BypassAuthorization alike (a bypass principal has no Authorizer), and the
// handlers that use it answer 401 in both cases; handleListAuthorizedInfra
// switches on the Principal itself to report a bypass.
func authenticatedUser(r *http.Request) (authorization.AuthorizerInterface, string, bool) {
	switch p := authentication.FromContext(r.Context()).(type) {
	case authentication.Authenticated:
		return p.Authorizer, p.Identity, true
	default:
		return nil, "", false
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responses.Response{Data: data, Status: status})
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status = appErr.Status
		message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responses.Response{Status: status, Message: message})
}

func (a *API) handleWhoami(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleWhoami")
	defer span.End()

	authorizer, identity, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	roles, err := authorizer.UserRoles(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, WhoamiResponse{Identity: identity, Name: identity, Roles: roles})
}

// handleListAuthorizedInfra answers "which infra can I administer at at
// least this grant" (default Reader). A BypassAuthorization caller has no
// Authorizer to ask and holds blanket access by definition, so the response
// reports Bypassed without ever calling into the authorization core; an
// Authenticated caller's result comes straight from the three-valued
// Authorization[[]string] ListAuthorizedInfra returns.
func (a *API) handleListAuthorizedInfra(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleListAuthorizedInfra")
	defer span.End()

	minimum := authorization.Reader
	if v := r.URL.Query().Get("minimum"); v != "" {
		parsed, err := authorization.ParseGrant(v)
		if err != nil {
			a.writeError(w, apperror.ParsingError("minimum", "Grant"))
			return
		}
		minimum = parsed
	}

	switch p := authentication.FromContext(ctx).(type) {
	case authentication.BypassAuthorization:
		a.writeJSON(w, http.StatusOK, AuthorizedInfraResponse{Bypassed: true})
	case authentication.Authenticated:
		result := p.Authorizer.ListAuthorizedInfra(ctx, minimum)
		if !result.IsGranted() {
			a.writeError(w, apperror.Forbidden(result.Reason()))
			return
		}
		a.writeJSON(w, http.StatusOK, AuthorizedInfraResponse{Bypassed: result.IsBypassed(), Infra: result.Value()})
	default:
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
	}
}

func (a *API) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleUserGroups")
	defer span.End()

	_, identity, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	user, err := a.directory.FindUserByIdentity(ctx, identity)
	if err != nil {
		a.writeError(w, err)
		return
	}

	groupIDs, err := a.directory.ListUserGroups(ctx, user.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	groups := make([]storage.Group, 0, len(groupIDs))
	for _, id := range groupIDs {
		group, err := a.directory.FindGroupByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.Warnf("group %q listed for user %q no longer exists, skipping", id, identity)
			continue
		}
		if err != nil {
			a.writeError(w, err)
			return
		}
		groups = append(groups, *group)
	}

	a.writeJSON(w, http.StatusOK, groups)
}

func (a *API) handleUserPrivileges(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleUserPrivileges")
	defer span.End()

	authorizer, _, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	var body ResourceIDsByType
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, apperror.ParsingError("request body", "ResourceIDsByType"))
		return
	}

	ids := body[ResourceTypeInfra]
	privilegesByID, err := authorizer.InfraPrivilegesBatch(ctx, ids)
	if err != nil {
		a.writeError(w, err)
		return
	}

	result := make(map[ResourceType][]ResourcePrivileges)
	for _, id := range ids {
		result[ResourceTypeInfra] = append(result[ResourceTypeInfra], ResourcePrivileges{
			ResourceID: id,
			Privileges: privilegesByID[id].Names(),
		})
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleUserGrants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleUserGrants")
	defer span.End()

	authorizer, _, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	var body ResourceIDsByType
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, apperror.ParsingError("request body", "ResourceIDsByType"))
		return
	}

	ids := body[ResourceTypeInfra]
	grantsByID, err := authorizer.InfraGrantsBatch(ctx, ids)
	if err != nil {
		a.writeError(w, err)
		return
	}

	result := make(map[ResourceType][]UserResourceGrant)
	for _, id := range ids {
		grant, ok := grantsByID[id]
		if !ok || grant == authorization.NoGrant {
			continue
		}
		result[ResourceTypeInfra] = append(result[ResourceTypeInfra], UserResourceGrant{ID: id, Grant: grant})
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSubjectsWithGrantOnResource(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleSubjectsWithGrantOnResource")
	defer span.End()

	authorizer, _, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	resourceType := ResourceType(chi.URLParam(r, "resource_type"))
	resourceID := chi.URLParam(r, "resource_id")
	if resourceType != ResourceTypeInfra {
		a.writeError(w, apperror.UnknownResource(string(resourceType)))
		return
	}

	// Consulting who else has access requires the caller to be able to
	// read the resource themselves.
	decision, err := authorizer.AuthorizeInfra(ctx, resourceID, authorization.CanRead)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !decision.IsAllowed() {
		a.writeError(w, apperror.Forbidden(decision.Reason()))
		return
	}

	subjectsWithGrant, err := authorizer.SubjectsWithGrant(ctx, resourceID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	page, pageSize := pagedQuery(r)

	subjects := make([]SubjectGrant, 0, len(subjectsWithGrant))
	for subjectID, grant := range subjectsWithGrant {
		name, subjectType, err := a.resolveSubject(ctx, subjectID)
		if err != nil {
			a.logger.Errorf("dropping subject %q from response, %s", subjectID, err)
			continue
		}
		subjects = append(subjects, SubjectGrant{ID: subjectID, Name: name, Type: subjectType, Grant: grant})
	}

	subjects = paginate(subjects, page, pageSize)

	a.writeJSON(w, http.StatusOK, SubjectsWithGrantOnResource{Subjects: subjects, Page: page, PageSize: pageSize})
}

func pagedQuery(r *http.Request) (page, pageSize int64) {
	page = 1
	pageSize = 100

	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 64); err == nil && v > 0 {
		pageSize = v
	}

	return page, pageSize
}

func paginate(subjects []SubjectGrant, page, pageSize int64) []SubjectGrant {
	start := (page - 1) * pageSize
	if start < 0 || start >= int64(len(subjects)) {
		return []SubjectGrant{}
	}

	end := start + pageSize
	if end > int64(len(subjects)) {
		end = int64(len(subjects))
	}

	return subjects[start:end]
}

// resolveSubject resolves subjectID against the directory, trying user
// first and group second, since subject ids are not namespaced by type on
// the wire.
func (a *API) resolveSubject(ctx context.Context, subjectID string) (string, SubjectType, error) {
	if user, err := a.directory.FindUserByIdentity(ctx, subjectID); err == nil {
		return user.Identity, SubjectTypeUser, nil
	}

	if group, err := a.directory.FindGroupByID(ctx, subjectID); err == nil {
		return group.Name, SubjectTypeGroup, nil
	}

	return "", "", fmt.Errorf("subject %q is neither a known user nor a known group", subjectID)
}

func (a *API) handleUpdateGrants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "views.API.handleUpdateGrants")
	defer span.End()

	authorizer, _, ok := authenticatedUser(r.WithContext(ctx))
	if !ok {
		a.writeError(w, apperror.Unauthorized("no authenticated identity"))
		return
	}

	var body UpdateGrantsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, apperror.ParsingError("request body", "UpdateGrantsRequest"))
		return
	}
	if (len(body.Grant) == 0) == (len(body.Revoke) == 0) {
		a.writeError(w, apperror.ParsingError("request body", "exactly one of grant or revoke"))
		return
	}

	if len(body.Grant) > 0 {
		for _, g := range body.Grant {
			if err := a.validator.Struct(g); err != nil {
				a.writeError(w, apperror.ParsingError("request body", "GrantBody"))
				return
			}
			if g.ResourceType != ResourceTypeInfra {
				a.writeError(w, apperror.UnknownResource(string(g.ResourceType)))
				return
			}
			grantee, err := a.subjectRef(ctx, g.SubjectID)
			if err != nil {
				a.writeError(w, apperror.UnknownSubject(g.SubjectID))
				return
			}
			if err := authorizer.GiveInfraGrant(ctx, grantee, g.ResourceID, g.Grant); err != nil {
				a.writeError(w, err)
				return
			}
		}
		a.writeJSON(w, http.StatusCreated, nil)
		return
	}

	for _, rv := range body.Revoke {
		if err := a.validator.Struct(rv); err != nil {
			a.writeError(w, apperror.ParsingError("request body", "RevokeBody"))
			return
		}
		if rv.ResourceType != ResourceTypeInfra {
			a.writeError(w, apperror.UnknownResource(string(rv.ResourceType)))
			return
		}
		subject, err := a.subjectRef(ctx, rv.SubjectID)
		if err != nil {
			a.writeError(w, apperror.UnknownSubject(rv.SubjectID))
			return
		}
		if err := authorizer.RevokeInfraGrants(ctx, subject, rv.ResourceID); err != nil {
			a.writeError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) subjectRef(ctx context.Context, subjectID string) (relation.UserExpr, error) {
	if _, err := a.directory.FindUserByIdentity(ctx, subjectID); err == nil {
		return relation.NewRef(relation.TypeUser, subjectID), nil
	}
	if _, err := a.directory.FindGroupByID(ctx, subjectID); err == nil {
		return relation.NewUserset(relation.TypeGroup, subjectID, "member"), nil
	}
	return nil, fmt.Errorf("subject %q is neither a known user nor a known group", subjectID)
}
