// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
)

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_regulator.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_authorizer.go -source=../../internal/authorization/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_tracing.go go.opentelemetry.io/otel/trace Tracer

func newTestResolver(t *testing.T, ctrl *gomock.Controller, authzEnabled bool) (*Resolver, *MockRegulatorInterface) {
	t.Helper()

	mockRegulator := NewMockRegulatorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockTracer := NewMockTracer(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()
	mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()

	return NewResolver(mockRegulator, authzEnabled, mockTracer, mockMonitor, mockLogger), mockRegulator
}

func TestAuthenticateBypassesWhenAuthorizationDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, _ := newTestResolver(t, ctrl, false)

	header := http.Header{}
	header.Set(headerIdentity, "alice")

	principal, err := r.Authenticate(context.Background(), header)

	require.NoError(t, err)
	assert.Equal(t, BypassAuthorization{Identity: "alice"}, principal)
}

func TestAuthenticateBypassesOnSkipAuthzHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, _ := newTestResolver(t, ctrl, true)

	header := http.Header{}
	header.Set(headerSkipAuthz, "1")

	principal, err := r.Authenticate(context.Background(), header)

	require.NoError(t, err)
	assert.Equal(t, BypassAuthorization{}, principal)
}

func TestAuthenticateUnauthenticatedWithoutIdentityHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, _ := newTestResolver(t, ctrl, true)

	principal, err := r.Authenticate(context.Background(), http.Header{})

	require.NoError(t, err)
	assert.Equal(t, Unauthenticated{}, principal)
}

func TestAuthenticateProvisionsUnknownUserExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, mockRegulator := newTestResolver(t, ctrl, true)
	mockAuthorizer := NewMockAuthorizerInterface(ctrl)

	header := http.Header{}
	header.Set(headerIdentity, "alice")
	header.Set(headerName, "Alice")

	mockRegulator.EXPECT().NewAuthorizer(gomock.Any(), "alice").Return(nil, apperror.UnknownUser("alice"))
	mockRegulator.EXPECT().EnsureUser(gomock.Any(), "alice", "Alice").Return(mockAuthorizer, nil)

	principal, err := r.Authenticate(context.Background(), header)

	require.NoError(t, err)
	authenticated, ok := principal.(Authenticated)
	require.True(t, ok)
	assert.Equal(t, "alice", authenticated.Identity)
}

func TestAuthenticateImpersonationRequiresAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, mockRegulator := newTestResolver(t, ctrl, true)
	mockAuthorizer := NewMockAuthorizerInterface(ctrl)

	header := http.Header{}
	header.Set(headerIdentity, "bob")
	header.Set(headerImpersonate, "alice")

	mockRegulator.EXPECT().NewAuthorizer(gomock.Any(), "bob").Return(mockAuthorizer, nil)
	mockAuthorizer.EXPECT().CheckRole(gomock.Any(), roleAdmin).Return(false, nil)

	_, err := r.Authenticate(context.Background(), header)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, "ForbiddenImpersonation"))
}

func TestAuthenticateImpersonatedUserNotFoundIsDistinctFromUnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, mockRegulator := newTestResolver(t, ctrl, true)
	mockAuthorizer := NewMockAuthorizerInterface(ctrl)

	header := http.Header{}
	header.Set(headerIdentity, "bob")
	header.Set(headerImpersonate, "ghost")

	mockRegulator.EXPECT().NewAuthorizer(gomock.Any(), "bob").Return(mockAuthorizer, nil)
	mockAuthorizer.EXPECT().CheckRole(gomock.Any(), roleAdmin).Return(true, nil)
	mockRegulator.EXPECT().NewAuthorizer(gomock.Any(), "ghost").Return(nil, apperror.UnknownUser("ghost"))

	_, err := r.Authenticate(context.Background(), header)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, "ImpersonatedUserNotFound"))
}
