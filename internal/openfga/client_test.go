// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package openfga

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/kelseyhightower/envconfig"
	openfga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
)

//go:generate mockgen -build_flags=--mod=mod -package openfga -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package openfga -destination ./mock_client.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package openfga -destination ./mock_openfga_client.go github.com/openfga/go-sdk/client SdkClientListObjectsRequestInterface,SdkClientReadRequestInterface,SdkClientWriteRequestInterface,SdkClientCheckRequestInterface,SdkClientBatchCheckRequestInterface
//go:generate mockgen -build_flags=--mod=mod -package openfga -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package openfga -destination ./mock_tracing.go go.opentelemetry.io/otel/trace Tracer

type testEnvSpec struct {
	ApiScheme            string `envconfig:"openfga_api_scheme" default:"http"`
	ApiHost              string `envconfig:"openfga_api_host" default:"127.0.0.1:3000"`
	ApiToken             string `envconfig:"openfga_api_token" default:"42"`
	StoreID              string `envconfig:"openfga_store_id" default:"01HPSTD8C1V7Y35D7NMG2VRCXP"`
	AuthorizationModelID string `envconfig:"openfga_authorization_model_id" default:"01HPSTRTWY7SPT0W1357KRT4AE"`
}

func newTestClient(t *testing.T, ctrl *gomock.Controller) (*Client, *MockOpenFGAClientInterface, *MockLoggerInterface) {
	t.Helper()

	mockLogger := NewMockLoggerInterface(ctrl)
	mockTracer := NewMockTracer(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockOpenFGAClient := NewMockOpenFGAClientInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()

	specs := new(testEnvSpec)
	require.NoError(t, envconfig.Process("", specs))

	cfg := NewConfig(
		specs.ApiScheme,
		specs.ApiHost,
		specs.StoreID,
		specs.ApiToken,
		specs.AuthorizationModelID,
		true,
		2,
		2,
		nil,
		mockTracer,
		mockMonitor,
		mockLogger,
	)

	c := NewClient(cfg)
	c.c = mockOpenFGAClient

	return c, mockOpenFGAClient, mockLogger
}

func TestNewClientAPIClientImplementsInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, _, _ := newTestClient(t, ctrl)

	assert.True(t, reflect.TypeOf(c.APIClient()).Implements(
		reflect.TypeOf((*OpenFGAClientInterface)(nil)).Elem(),
	))
}

func TestNewClientDefaultsQuotas(t *testing.T) {
	cfg := NewConfig("http", "127.0.0.1:3000", "store", "token", "model", false, 0, 0, nil, nil, nil, nil)
	c := NewClient(cfg)

	assert.Equal(t, defaultMaxChecksPerBatchCheck, c.maxChecksPerBatchCheck)
	assert.Equal(t, defaultMaxTuplesPerWrite, c.maxTuplesPerWrite)
}

func TestClientCheckSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, _ := newTestClient(t, ctrl)

	req := client.NewSdkClientCheckRequest(mockFga, context.Background())

	mockFga.EXPECT().Check(gomock.Any()).Return(req)
	mockFga.EXPECT().CheckExecute(gomock.Any()).Return(
		&client.ClientCheckResponse{CheckResponse: openfga.CheckResponse{Allowed: openfga.PtrBool(true)}},
		nil,
	)

	allowed, err := c.Check(context.Background(), "user:alice", "reader", "infra:france")

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestClientCheckFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, mockLogger := newTestClient(t, ctrl)

	req := client.NewSdkClientCheckRequest(mockFga, context.Background())

	mockFga.EXPECT().Check(gomock.Any()).Return(req)
	mockFga.EXPECT().CheckExecute(gomock.Any()).Return(nil, fmt.Errorf("boom"))
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())

	allowed, err := c.Check(context.Background(), "user:alice", "reader", "infra:france")

	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestClientWriteTuplesRejectsOverQuota(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, _, _ := newTestClient(t, ctrl)

	err := c.WriteTuples(
		context.Background(),
		*NewTuple("user:alice", "reader", "infra:a"),
		*NewTuple("user:bob", "reader", "infra:b"),
		*NewTuple("user:carol", "reader", "infra:c"),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TooManyTuples")
}

func TestClientListObjectsStripsTypePrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, _ := newTestClient(t, ctrl)

	req := client.NewSdkClientListObjectsRequest(mockFga, context.Background())

	mockFga.EXPECT().ListObjects(gomock.Any()).Return(req)
	mockFga.EXPECT().ListObjectsExecute(gomock.Any()).Return(
		&client.ClientListObjectsResponse{ListObjectsResponse: openfga.ListObjectsResponse{
			Objects: []string{"infra:france", "infra:espagne"},
		}},
		nil,
	)

	objs, err := c.ListObjects(context.Background(), "user:alice", "reader", "infra")

	require.NoError(t, err)
	assert.Equal(t, []string{"france", "espagne"}, objs)
}

func TestContinuationThreeStates(t *testing.T) {
	assert.True(t, NotStarted().IsNotStarted())
	assert.False(t, NotStarted().Done())

	assert.True(t, Exhausted().Done())
	assert.False(t, Exhausted().IsNotStarted())

	c := Continue("some-token")
	assert.False(t, c.Done())
	assert.False(t, c.IsNotStarted())
	assert.Equal(t, "some-token", c.Token())

	assert.True(t, Continue("").Done())
}

func TestChunkIndices(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, chunkIndices(5, 2))
	assert.Equal(t, [][]int{{0, 1, 2}}, chunkIndices(3, 10))
	assert.Nil(t, chunkIndices(0, 2))
}

func TestPreparedChecksExecutePreservesCallerOrderAcrossChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, _ := newTestClient(t, ctrl)

	mockPool := pool.NewMockWorkerPoolInterface(ctrl)
	pool.SetupMockSubmit(mockPool, nil)
	c.wpool = mockPool

	mockRequest := NewMockSdkClientBatchCheckRequestInterface(ctrl)
	mockFga.EXPECT().BatchCheck(gomock.Any()).Return(mockRequest).AnyTimes()
	mockRequest.EXPECT().Options(gomock.Any()).Return(mockRequest).AnyTimes()

	var lastBody client.ClientBatchCheckRequest
	mockRequest.EXPECT().Body(gomock.Any()).DoAndReturn(
		func(body client.ClientBatchCheckRequest) client.SdkClientBatchCheckRequestInterface {
			lastBody = body
			return mockRequest
		},
	).AnyTimes()

	mockFga.EXPECT().BatchCheckExecute(mockRequest).DoAndReturn(
		func(client.SdkClientBatchCheckRequestInterface) (*client.ClientBatchCheckResponse, error) {
			result := make(map[string]openfga.BatchCheckSingleResult, len(lastBody.Checks))
			for _, item := range lastBody.Checks {
				single := openfga.BatchCheckSingleResult{}
				single.SetAllowed(item.Relation != "owner")
				result[item.CorrelationId] = single
			}

			resp := client.ClientBatchCheckResponse{}
			resp.SetResult(result)
			return &resp, nil
		},
	).AnyTimes()

	checks := c.PreparedChecks()
	user := relation.NewRef(relation.TypeUser, "alice")
	infra := relation.NewRef(relation.TypeInfra, "france")
	for _, rel := range []string{"reader", "writer", "owner"} {
		tuple, err := relation.NewTuple(user, rel, infra)
		require.NoError(t, err)
		checks.Add(tuple)
	}

	results, err := checks.Execute(context.Background())

	require.NoError(t, err)
	require.Equal(t, []CheckResult{{Allowed: true}, {Allowed: true}, {Allowed: false}}, results)
}

func TestPreparedChecksExecuteOnEmptyQueueIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, _, _ := newTestClient(t, ctrl)

	results, err := c.PreparedChecks().Execute(context.Background())

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestPreparedWritesExecuteChunksIntoMultipleWriteCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, _ := newTestClient(t, ctrl)

	mockPool := pool.NewMockWorkerPoolInterface(ctrl)
	pool.SetupMockSubmit(mockPool, nil)
	c.wpool = mockPool

	req := client.NewSdkClientWriteRequest(mockFga, context.Background())
	mockFga.EXPECT().Write(gomock.Any()).Return(req).AnyTimes()
	mockFga.EXPECT().WriteExecute(gomock.Any()).Return(&client.ClientWriteResponse{}, nil).Times(2)

	writes := c.PreparedWrites()
	user := relation.NewRef(relation.TypeUser, "alice")
	infra := relation.NewRef(relation.TypeInfra, "france")
	for i := 0; i < 3; i++ {
		tuple, err := relation.NewTuple(user, "reader", infra)
		require.NoError(t, err)
		writes.Add(tuple)
	}

	require.NoError(t, writes.Execute(context.Background()))
}

func TestPreparedDeletesExecuteIsNonTransactional(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, mockFga, mockLogger := newTestClient(t, ctrl)

	mockPool := pool.NewMockWorkerPoolInterface(ctrl)
	pool.SetupMockSubmit(mockPool, nil)
	c.wpool = mockPool

	req := client.NewSdkClientWriteRequest(mockFga, context.Background())
	mockFga.EXPECT().Write(gomock.Any()).Return(req).AnyTimes()
	mockFga.EXPECT().WriteExecute(gomock.Any()).Return(nil, fmt.Errorf("boom")).Times(1)
	mockFga.EXPECT().WriteExecute(gomock.Any()).Return(&client.ClientWriteResponse{}, nil).Times(1)
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	deletes := c.PreparedDeletes()
	user := relation.NewRef(relation.TypeUser, "alice")
	infra := relation.NewRef(relation.TypeInfra, "france")
	for i := 0; i < 3; i++ {
		tuple, err := relation.NewTuple(user, "reader", infra)
		require.NoError(t, err)
		deletes.Add(tuple)
	}

	err := deletes.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
