// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package openfga

import (
	"context"

	"github.com/openfga/go-sdk/client"

	"github.com/canonical/identity-platform-admin-ui/internal/relation"
)

// PreparedChecksInterface is the narrow batched-check builder surface the
// Authorizer drives. *PreparedChecks and *NoopPreparedChecks both implement
// it, so an authorization-disabled deployment exercises the same call shape
// as a live one.
type PreparedChecksInterface interface {
	Add(t relation.Tuple)
	Execute(ctx context.Context) ([]CheckResult, error)
}

// PreparedMutationInterface is the narrow batched-write/-delete builder
// surface. PreparedWrites, PreparedDeletes, and NoopPreparedMutation all
// implement it.
type PreparedMutationInterface interface {
	Add(t relation.Tuple)
	Execute(ctx context.Context) error
}

// OpenFGAClientInterface is the subset of the openfga-go-sdk high level
// client this package drives. It exists so the transport can be mocked in
// tests without reaching a live OpenFGA server.
type OpenFGAClientInterface interface {
	GetAuthorizationModelId() (string, error)
	SetAuthorizationModelId(string)

	CreateStore(context.Context) client.SdkClientCreateStoreRequestInterface
	CreateStoreExecute(client.SdkClientCreateStoreRequestInterface) (*client.ClientCreateStoreResponse, error)
	DeleteStore(context.Context) client.SdkClientDeleteStoreRequestInterface
	DeleteStoreExecute(client.SdkClientDeleteStoreRequestInterface) error
	ListStores(context.Context) client.SdkClientListStoresRequestInterface
	ListStoresExecute(client.SdkClientListStoresRequestInterface) (*client.ClientListStoresResponse, error)

	ReadAuthorizationModel(context.Context) client.SdkClientReadAuthorizationModelRequestInterface
	ReadAuthorizationModelExecute(client.SdkClientReadAuthorizationModelRequestInterface) (*client.ClientReadAuthorizationModelResponse, error)
	ReadAuthorizationModels(context.Context) client.SdkClientReadAuthorizationModelsRequestInterface
	ReadAuthorizationModelsExecute(client.SdkClientReadAuthorizationModelsRequestInterface) (*client.ClientReadAuthorizationModelsResponse, error)
	WriteAuthorizationModel(context.Context) client.SdkClientWriteAuthorizationModelRequestInterface
	WriteAuthorizationModelExecute(client.SdkClientWriteAuthorizationModelRequestInterface) (*client.ClientWriteAuthorizationModelResponse, error)

	Read(context.Context) client.SdkClientReadRequestInterface
	ReadExecute(client.SdkClientReadRequestInterface) (*client.ClientReadResponse, error)

	Check(context.Context) client.SdkClientCheckRequestInterface
	CheckExecute(client.SdkClientCheckRequestInterface) (*client.ClientCheckResponse, error)
	BatchCheck(context.Context) client.SdkClientBatchCheckRequestInterface
	BatchCheckExecute(client.SdkClientBatchCheckRequestInterface) (*client.ClientBatchCheckResponse, error)

	Write(context.Context) client.SdkClientWriteRequestInterface
	WriteExecute(client.SdkClientWriteRequestInterface) (*client.ClientWriteResponse, error)

	ListObjects(context.Context) client.SdkClientListObjectsRequestInterface
	ListObjectsExecute(client.SdkClientListObjectsRequestInterface) (*client.ClientListObjectsResponse, error)
	ListUsers(context.Context) client.SdkClientListUsersRequestInterface
	ListUsersExecute(client.SdkClientListUsersRequestInterface) (*client.ClientListUsersResponse, error)
}
