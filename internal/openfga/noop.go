// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package openfga

import (
	"context"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
	openfga "github.com/openfga/go-sdk"
)

type NoopClient struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewNoopClient(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *NoopClient {
	c := new(NoopClient)
	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger
	return c
}

func (c *NoopClient) ListObjects(ctx context.Context, user string, relation string, objectType string) ([]string, error) {
	return make([]string, 0), nil
}

func (c *NoopClient) Check(ctx context.Context, user string, relation string, object string) (bool, error) {
	return true, nil
}

func (c *NoopClient) WriteTuple(ctx context.Context, user string, relation string, object string) error {
	return nil
}

func (c *NoopClient) ReadModel(ctx context.Context) (*openfga.AuthorizationModel, error) {
	return nil, nil
}

func (c *NoopClient) WriteModel(ctx context.Context, model []byte) (string, error) {
	return "", nil
}

func (c *NoopClient) CompareModel(ctx context.Context, model openfga.AuthorizationModel) (bool, error) {
	return true, nil
}

func (c *NoopClient) DeleteTuple(ctx context.Context, user string, relation string, object string) error {
	return nil
}

func (c *NoopClient) WriteTuples(ctx context.Context, tuples ...Tuple) error {
	return nil
}

func (c *NoopClient) DeleteTuples(ctx context.Context, tuples ...Tuple) error {
	return nil
}

func (c *NoopClient) TupleExists(ctx context.Context, t Tuple) (bool, error) {
	return true, nil
}

func (c *NoopClient) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) (openfga.ReadResponse, error) {
	return openfga.ReadResponse{}, nil
}

func (c *NoopClient) ListUsers(ctx context.Context, object, relation, userType string) (UserList, error) {
	return UserList{PublicAccess: true}, nil
}

func (c *NoopClient) ListUsersets(ctx context.Context, object, relation, targetType, targetRelation string) ([]string, error) {
	return make([]string, 0), nil
}

func (c *NoopClient) IsHealthy(ctx context.Context) (bool, error) {
	return true, nil
}

func (c *NoopClient) AttachStore(ctx context.Context, name string) error {
	return nil
}

func (c *NoopClient) CreateOrResetStore(ctx context.Context, name string, reset bool) error {
	return nil
}

func (c *NoopClient) RefreshAuthorizationModel(ctx context.Context) error {
	return nil
}

// NoopPreparedChecks always reports every queued tuple as allowed, mirroring
// the bypass semantics of Check above.
type NoopPreparedChecks struct {
	n int
}

func (c *NoopClient) PreparedChecks() PreparedChecksInterface {
	return &NoopPreparedChecks{}
}

func (p *NoopPreparedChecks) Add(t relation.Tuple) {
	p.n++
}

func (p *NoopPreparedChecks) Execute(ctx context.Context) ([]CheckResult, error) {
	results := make([]CheckResult, p.n)
	for i := range results {
		results[i] = CheckResult{Allowed: true}
	}
	return results, nil
}

type NoopPreparedMutation struct{}

func (c *NoopClient) PreparedWrites() PreparedMutationInterface {
	return &NoopPreparedMutation{}
}

func (c *NoopClient) PreparedDeletes() PreparedMutationInterface {
	return &NoopPreparedMutation{}
}

func (p *NoopPreparedMutation) Add(t relation.Tuple) {}

func (p *NoopPreparedMutation) Execute(ctx context.Context) error {
	return nil
}
