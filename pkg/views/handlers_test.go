// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package views

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/identity-platform-admin-ui/internal/authorization"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
	"github.com/canonical/identity-platform-admin-ui/pkg/authentication"
	"github.com/canonical/identity-platform-admin-ui/pkg/storage"
)

//go:generate mockgen -build_flags=--mod=mod -package views -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package views -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package views -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package views -destination ./mock_tracing.go go.opentelemetry.io/otel/trace Tracer
// authorization.MockAuthorizerInterface is generated into package
// authorization itself (see internal/authorization/authorizer_test.go), not
// duplicated here.

func newTestAPI(t *testing.T, ctrl *gomock.Controller) (*API, *authorization.MockAuthorizerInterface, *MockSubjectDirectoryInterface) {
	t.Helper()

	mockAuthorizer := authorization.NewMockAuthorizerInterface(ctrl)
	mockDirectory := NewMockSubjectDirectoryInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)
	mockTracer := NewMockTracer(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()

	api := NewAPI(mockDirectory, mockTracer, mockMonitor, mockLogger)

	return api, mockAuthorizer, mockDirectory
}

func withPrincipal(req *http.Request, authorizer authorization.AuthorizerInterface, identity string) *http.Request {
	return req.WithContext(authentication.ContextWithPrincipal(req.Context(), authentication.Authenticated{
		Authorizer: authorizer,
		Identity:   identity,
		Name:       identity,
	}))
}

func TestHandleWhoamiReturnsIdentityAndRoles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		UserRoles(gomock.Any()).
		Return([]string{"admin"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/me", nil)
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed struct {
		Data WhoamiResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "alice", parsed.Data.Identity)
	assert.Equal(t, []string{"admin"}, parsed.Data.Roles)
}

func TestHandleWhoamiUnauthenticatedReturns401(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, _, _ := newTestAPI(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/me", nil)

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestHandleListAuthorizedInfraBypassedSkipsTheAuthorizer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, _, _ := newTestAPI(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/me/infra", nil)
	req = req.WithContext(authentication.ContextWithPrincipal(req.Context(), authentication.BypassAuthorization{Identity: "alice"}))

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var parsed struct {
		Data AuthorizedInfraResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.True(t, parsed.Data.Bypassed)
	assert.Empty(t, parsed.Data.Infra)
}

func TestHandleListAuthorizedInfraReturnsGrantedList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		ListAuthorizedInfra(gomock.Any(), authorization.Writer).
		Return(authorization.Granted([]string{"france", "espagne"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/me/infra?minimum=writer", nil)
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var parsed struct {
		Data AuthorizedInfraResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.False(t, parsed.Data.Bypassed)
	assert.ElementsMatch(t, []string{"france", "espagne"}, parsed.Data.Infra)
}

func TestHandleListAuthorizedInfraReturnsErrorOnDenial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		ListAuthorizedInfra(gomock.Any(), authorization.Reader).
		Return(authorization.DeniedValue[[]string]("tuple store unavailable"))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/me/infra", nil)
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}

func TestHandleUserPrivilegesOmitsNothingForEveryRequestedInfra(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		InfraPrivilegesBatch(gomock.Any(), []string{"france"}).
		Return(map[string]authorization.InfraPrivilegeSet{
			"france": authorization.InfraPrivilegeSet(authorization.CanRead | authorization.CanShareRead),
		}, nil)

	payload, err := json.Marshal(ResourceIDsByType{ResourceTypeInfra: {"france"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/authz/me/privileges", bytes.NewReader(payload))
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var parsed struct {
		Data map[ResourceType][]ResourcePrivileges `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	require.Len(t, parsed.Data[ResourceTypeInfra], 1)
	assert.ElementsMatch(t, []string{"can_read", "can_share_read"}, parsed.Data[ResourceTypeInfra][0].Privileges)
}

func TestHandleUserGrantsOmitsResourcesWithNoGrant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		InfraGrantsBatch(gomock.Any(), []string{"france", "espagne"}).
		Return(map[string]authorization.Grant{
			"france":  authorization.Writer,
			"espagne": authorization.NoGrant,
		}, nil)

	payload, err := json.Marshal(ResourceIDsByType{ResourceTypeInfra: {"france", "espagne"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/authz/me/grants", bytes.NewReader(payload))
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var parsed struct {
		Data map[ResourceType][]UserResourceGrant `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	require.Len(t, parsed.Data[ResourceTypeInfra], 1)
	assert.Equal(t, "france", parsed.Data[ResourceTypeInfra][0].ID)
}

func TestHandleSubjectsWithGrantOnResourceRequiresRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		AuthorizeInfra(gomock.Any(), "france", authorization.CanRead).
		Return(authorization.Denied("missing read"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/infra/france", nil)
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}

func TestHandleSubjectsWithGrantOnResourceResolvesSubjects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, mockDirectory := newTestAPI(t, ctrl)

	mockAuthorizer.EXPECT().
		AuthorizeInfra(gomock.Any(), "france", authorization.CanRead).
		Return(authorization.Allowed(), nil)
	mockAuthorizer.EXPECT().
		SubjectsWithGrant(gomock.Any(), "france").
		Return(map[string]authorization.Grant{"bob": authorization.Writer}, nil)

	mockDirectory.EXPECT().FindUserByIdentity(gomock.Any(), "bob").Return(&storage.User{ID: "bob", Identity: "bob"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/authz/infra/france", nil)
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var parsed struct {
		Data SubjectsWithGrantOnResource `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	require.Len(t, parsed.Data.Subjects, 1)
	assert.Equal(t, "bob", parsed.Data.Subjects[0].ID)
	assert.Equal(t, SubjectTypeUser, parsed.Data.Subjects[0].Type)
}

func TestHandleUpdateGrantsRejectsBodyWithBothGrantAndRevoke(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, _ := newTestAPI(t, ctrl)

	payload, err := json.Marshal(UpdateGrantsRequest{
		Grant:  []GrantBody{{ResourceType: ResourceTypeInfra, ResourceID: "france", SubjectID: "bob", Grant: authorization.Reader}},
		Revoke: []RevokeBody{{ResourceType: ResourceTypeInfra, ResourceID: "france", SubjectID: "carol"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/authz/grants", bytes.NewReader(payload))
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
}

func TestHandleUpdateGrantsWritesGrantForResolvedUserSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, mockDirectory := newTestAPI(t, ctrl)

	mockDirectory.EXPECT().FindUserByIdentity(gomock.Any(), "bob").Return(&storage.User{ID: "bob", Identity: "bob"}, nil)
	mockAuthorizer.EXPECT().
		GiveInfraGrant(gomock.Any(), relation.NewRef(relation.TypeUser, "bob"), "france", authorization.Reader).
		Return(nil)

	payload, err := json.Marshal(UpdateGrantsRequest{
		Grant: []GrantBody{{ResourceType: ResourceTypeInfra, ResourceID: "france", SubjectID: "bob", Grant: authorization.Reader}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/authz/grants", bytes.NewReader(payload))
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
}

func TestHandleUpdateGrantsRevokesForResolvedGroupSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, mockAuthorizer, mockDirectory := newTestAPI(t, ctrl)

	mockDirectory.EXPECT().FindUserByIdentity(gomock.Any(), "engineers").Return(nil, storage.ErrNotFound)
	mockDirectory.EXPECT().FindGroupByID(gomock.Any(), "engineers").Return(&storage.Group{ID: "engineers", Name: "engineers"}, nil)
	mockAuthorizer.EXPECT().
		RevokeInfraGrants(gomock.Any(), relation.NewUserset(relation.TypeGroup, "engineers", "member"), "france").
		Return(nil)

	payload, err := json.Marshal(UpdateGrantsRequest{
		Revoke: []RevokeBody{{ResourceType: ResourceTypeInfra, ResourceID: "france", SubjectID: "engineers"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/authz/grants", bytes.NewReader(payload))
	req = withPrincipal(req, mockAuthorizer, "alice")

	w := httptest.NewRecorder()
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode)
}
