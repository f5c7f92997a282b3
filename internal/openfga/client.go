// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package openfga

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/google/uuid"
	openfga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
)

const (
	defaultMaxChecksPerBatchCheck = 50
	defaultMaxTuplesPerWrite      = 100
)

type Config struct {
	ApiScheme   string
	ApiHost     string
	StoreID     string
	ApiToken    string
	AuthModelID string
	Debug       bool

	MaxChecksPerBatchCheck int
	MaxTuplesPerWrite      int

	Pool    pool.WorkerPoolInterface
	Tracer  tracing.TracingInterface
	Monitor monitoring.MonitorInterface
	Logger  logging.LoggerInterface
}

func NewConfig(apiScheme, apiHost, storeID, apiToken, authModelID string, debug bool, maxChecksPerBatchCheck, maxTuplesPerWrite int, wpool pool.WorkerPoolInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Config {
	c := new(Config)

	c.ApiScheme = apiScheme
	c.ApiHost = apiHost
	c.StoreID = storeID
	c.ApiToken = apiToken
	c.AuthModelID = authModelID
	c.Debug = debug

	c.MaxChecksPerBatchCheck = maxChecksPerBatchCheck
	c.MaxTuplesPerWrite = maxTuplesPerWrite

	c.Pool = wpool
	c.Monitor = monitor
	c.Tracer = tracer
	c.Logger = logger

	return c
}

// Client is a quota-aware, correlation-preserving facade over the OpenFGA
// go-sdk high level client.
type Client struct {
	c *client.OpenFgaClient

	maxChecksPerBatchCheck int
	maxTuplesPerWrite      int

	wpool pool.WorkerPoolInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Client) APIClient() *client.OpenFgaClient {
	return c.c
}

// ########################## Store / Model Operations ################################

// AttachStore finds an existing store by name and configures the client to
// use it, failing if no such store exists.
func (c *Client) AttachStore(ctx context.Context, name string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.AttachStore")
	defer span.End()

	cursor := NotStarted()
	for {
		req := c.c.ListStores(ctx)
		if !cursor.IsNotStarted() {
			req = req.Options(client.ClientListStoresOptions{ContinuationToken: strPtr(cursor.Token())})
		}

		resp, err := c.c.ListStoresExecute(req)
		if err != nil {
			return apperror.RequestFailure(err)
		}

		for _, store := range resp.GetStores() {
			if store.GetName() == name {
				c.c.SetStoreId(store.GetId())
				return c.RefreshAuthorizationModel(ctx)
			}
		}

		cursor = Continue(resp.GetContinuationToken())
		if cursor.Done() {
			return apperror.UnknownResource(fmt.Sprintf("no store named %q", name))
		}
	}
}

// CreateOrResetStore creates a store with the given name, optionally
// deleting a preexisting store of the same name first. Used for
// deterministic test isolation, never in the production startup path.
func (c *Client) CreateOrResetStore(ctx context.Context, name string, reset bool) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CreateOrResetStore")
	defer span.End()

	if reset {
		if err := c.AttachStore(ctx, name); err == nil {
			req := c.c.DeleteStore(ctx)
			if err := c.c.DeleteStoreExecute(req); err != nil {
				return apperror.RequestFailure(err)
			}
		}
	}

	resp, err := c.c.CreateStoreExecute(
		c.c.CreateStore(ctx).Body(client.ClientCreateStoreRequest{Name: name}),
	)
	if err != nil {
		return apperror.RequestFailure(err)
	}

	c.c.SetStoreId(resp.GetId())

	return nil
}

func (c *Client) ReadModel(ctx context.Context) (*openfga.AuthorizationModel, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadModel")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	authModel, err := c.c.ReadAuthorizationModelExecute(c.c.ReadAuthorizationModel(ctx))
	if err != nil {
		return nil, apperror.RequestFailure(err)
	}

	return authModel.AuthorizationModel, nil
}

func (c *Client) WriteModel(ctx context.Context, authModel *client.ClientWriteAuthorizationModelRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteModel")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := c.c.WriteAuthorizationModelExecute(
		c.c.WriteAuthorizationModel(ctx).Body(*authModel),
	)
	if err != nil {
		return "", apperror.RequestFailure(err)
	}

	c.c.SetAuthorizationModelId(data.GetAuthorizationModelId())

	return data.GetAuthorizationModelId(), nil
}

func (c *Client) CompareModel(ctx context.Context, model openfga.AuthorizationModel) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CompareModel")
	defer span.End()

	authModel, err := c.ReadModel(ctx)
	if err != nil {
		return false, err
	}

	if authModel.SchemaVersion != model.SchemaVersion {
		c.logger.Errorf("invalid authorization model schema version")
		return false, nil
	}
	if !reflect.DeepEqual(authModel.TypeDefinitions, model.TypeDefinitions) {
		c.logger.Errorf("invalid authorization model type definitions")
		return false, nil
	}

	return true, nil
}

// RefreshAuthorizationModel fetches the store's latest authorization model
// id and caches it on the underlying SDK client, so subsequent calls avoid
// server-side model inference.
func (c *Client) RefreshAuthorizationModel(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.RefreshAuthorizationModel")
	defer span.End()

	model, err := c.ReadModel(ctx)
	if err != nil {
		return err
	}

	c.c.SetAuthorizationModelId(model.GetId())

	return nil
}

// ########################## Single-shot Write Operations #############################

func (c *Client) WriteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuple")
	defer span.End()

	return c.WriteTuples(ctx, *NewTuple(user, relation, object))
}

func (c *Client) DeleteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuple")
	defer span.End()

	return c.DeleteTuples(ctx, *NewTuple(user, relation, object))
}

func (c *Client) WriteTuples(ctx context.Context, tuples ...Tuple) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuples")
	defer span.End()

	if len(tuples) > c.maxTuplesPerWrite {
		return apperror.TooManyTuples(len(tuples), c.maxTuplesPerWrite)
	}

	ts := make([]openfga.TupleKey, 0, len(tuples))
	for _, tuple := range tuples {
		ts = append(ts, *openfga.NewTupleKey(tuple.Values()))
	}

	body := openfga.NewWriteRequest()
	body.SetWrites(*openfga.NewWriteRequestWrites(ts))

	_, err := c.c.WriteExecute(c.c.Write(ctx).Body(*body))
	if err != nil {
		return apperror.RequestFailure(err)
	}

	return nil
}

func (c *Client) DeleteTuples(ctx context.Context, tuples ...Tuple) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuples")
	defer span.End()

	if len(tuples) > c.maxTuplesPerWrite {
		return apperror.TooManyTuples(len(tuples), c.maxTuplesPerWrite)
	}

	ts := make([]openfga.TupleKeyWithoutCondition, 0, len(tuples))
	for _, tuple := range tuples {
		ts = append(ts, *openfga.NewTupleKeyWithoutCondition(tuple.Values()))
	}

	body := openfga.NewWriteRequest()
	body.SetDeletes(*openfga.NewWriteRequestDeletes(ts))

	_, err := c.c.WriteExecute(c.c.Write(ctx).Body(*body))
	if err != nil {
		return apperror.RequestFailure(err)
	}

	return nil
}

// ########################## Check Operations ##########################################

func (c *Client) Check(ctx context.Context, user, relation, object string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.Check")
	defer span.End()

	body := openfga.NewCheckRequest(openfga.CheckRequestTupleKey{
		User:     user,
		Relation: relation,
		Object:   object,
	})

	check, err := c.c.CheckExecute(c.c.Check(ctx).Body(*body))
	if err != nil {
		c.logger.Errorf("issues performing check operation: %s", err)
		return false, apperror.RequestFailure(err)
	}

	return check.GetAllowed(), nil
}

// TupleExists reads the store filtered by t with a page size of one and
// reports whether any tuple matched.
func (c *Client) TupleExists(ctx context.Context, t Tuple) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.TupleExists")
	defer span.End()

	tuple := openfga.NewReadRequestTupleKey()
	tuple.SetUser(t.User)
	tuple.SetRelation(t.Relation)
	tuple.SetObject(t.Object)

	body := openfga.NewReadRequest()
	body.SetTupleKey(*tuple)

	req := c.c.Read(ctx).Body(*body).Options(client.ClientReadOptions{PageSize: int32Ptr(1)})

	resp, err := c.c.ReadExecute(req)
	if err != nil {
		return false, apperror.RequestFailure(err)
	}

	return len(resp.GetTuples()) > 0, nil
}

// ########################## Read / Query Operations ###################################

func (c *Client) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) (openfga.ReadResponse, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadTuples")
	defer span.End()

	tuple := openfga.NewReadRequestTupleKey()
	tuple.SetObject(object)
	tuple.SetRelation(relation)
	tuple.SetUser(user)

	body := openfga.NewReadRequest()
	body.SetTupleKey(*tuple)
	body.SetContinuationToken(continuationToken)

	res, err := c.c.ReadExecute(c.c.Read(ctx).Body(*body))
	if err != nil {
		return openfga.ReadResponse{}, apperror.RequestFailure(err)
	}

	return *res, nil
}

func (c *Client) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListObjects")
	defer span.End()

	body := &openfga.ListObjectsRequest{User: user, Relation: relation, Type: objectType}

	resp, err := c.c.ListObjectsExecute(c.c.ListObjects(ctx).Body(*body))
	if err != nil {
		c.logger.Errorf("issues performing list operation: %s", err)
		return nil, apperror.RequestFailure(err)
	}

	prefix := fmt.Sprintf("%s:", objectType)
	allowedObjs := make([]string, len(resp.GetObjects()))
	for i, p := range resp.GetObjects() {
		allowedObjs[i] = p[len(prefix):]
	}

	return allowedObjs, nil
}

// ListUsers returns the concrete subjects holding relation on object, plus
// whether a type-bound wildcard grants access to every subject of that type.
func (c *Client) ListUsers(ctx context.Context, object, relation, userType string) (UserList, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListUsers")
	defer span.End()

	objType, objID, _ := splitTypeID(object)

	body := client.ClientListUsersRequest{
		Object:   openfga.FgaObject{Type: objType, Id: objID},
		Relation: relation,
		UserFilters: []openfga.UserTypeFilter{
			{Type: userType},
		},
	}

	resp, err := c.c.ListUsersExecute(c.c.ListUsers(ctx).Body(body))
	if err != nil {
		return UserList{}, apperror.RequestFailure(err)
	}

	result := UserList{}
	for _, u := range resp.GetUsers() {
		if obj := u.GetObject(); obj.GetType() != "" {
			result.Users = append(result.Users, fmt.Sprintf("%s:%s", obj.GetType(), obj.GetId()))
			continue
		}
		if w := u.GetWildcard(); w.Type != "" {
			result.PublicAccess = true
			continue
		}
		// a userset showing up here is unreachable per the source's contract:
		// ListUsers is only ever called with a concrete user type filter.
	}

	return result, nil
}

// ListUsersets returns the usersets (e.g. which groups' members) holding
// relation on object.
func (c *Client) ListUsersets(ctx context.Context, object, relation, targetType, targetRelation string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListUsersets")
	defer span.End()

	objType, objID, _ := splitTypeID(object)

	body := client.ClientListUsersRequest{
		Object:   openfga.FgaObject{Type: objType, Id: objID},
		Relation: relation,
		UserFilters: []openfga.UserTypeFilter{
			{Type: targetType, Relation: &targetRelation},
		},
	}

	resp, err := c.c.ListUsersExecute(c.c.ListUsers(ctx).Body(body))
	if err != nil {
		return nil, apperror.RequestFailure(err)
	}

	usersets := make([]string, 0)
	for _, u := range resp.GetUsers() {
		if us := u.GetUserset(); us.GetId() != "" {
			usersets = append(usersets, us.GetId())
		}
	}

	return usersets, nil
}

// ########################## Healthcheck ###############################################

func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.IsHealthy")
	defer span.End()

	_, err := c.c.ReadAuthorizationModelExecute(c.c.ReadAuthorizationModel(ctx))
	if err != nil {
		return false, apperror.RequestFailure(err)
	}

	return true, nil
}

// ########################## Pagination #################################################

// ListStores returns one page of stores and the cursor to fetch the next.
func (c *Client) ListStores(ctx context.Context, cursor Continuation) ([]string, Continuation, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListStores")
	defer span.End()

	req := c.c.ListStores(ctx)
	if !cursor.IsNotStarted() {
		req = req.Options(client.ClientListStoresOptions{ContinuationToken: strPtr(cursor.Token())})
	}

	resp, err := c.c.ListStoresExecute(req)
	if err != nil {
		return nil, Continuation{}, apperror.RequestFailure(err)
	}

	names := make([]string, 0, len(resp.GetStores()))
	for _, s := range resp.GetStores() {
		names = append(names, s.GetName())
	}

	return names, Continue(resp.GetContinuationToken()), nil
}

// ListAuthorizationModels returns one page of authorization model ids and
// the cursor to fetch the next.
func (c *Client) ListAuthorizationModels(ctx context.Context, cursor Continuation) ([]string, Continuation, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListAuthorizationModels")
	defer span.End()

	req := c.c.ReadAuthorizationModels(ctx)
	if !cursor.IsNotStarted() {
		req = req.Options(client.ClientReadAuthorizationModelsOptions{ContinuationToken: strPtr(cursor.Token())})
	}

	resp, err := c.c.ReadAuthorizationModelsExecute(req)
	if err != nil {
		return nil, Continuation{}, apperror.RequestFailure(err)
	}

	ids := make([]string, 0, len(resp.GetAuthorizationModels()))
	for _, m := range resp.GetAuthorizationModels() {
		ids = append(ids, m.GetId())
	}

	return ids, Continue(resp.GetContinuationToken()), nil
}

func splitTypeID(typeID string) (typ, id string, ok bool) {
	for i := 0; i < len(typeID); i++ {
		if typeID[i] == ':' {
			return typeID[:i], typeID[i+1:], true
		}
	}
	return typeID, "", false
}

func strPtr(s string) *string { return &s }
func int32Ptr(i int32) *int32 { return &i }

func NewClient(cfg *Config) *Client {
	c := new(Client)

	if cfg == nil {
		panic("OpenFGA config missing")
	}

	fga, err := client.NewSdkClient(
		&client.ClientConfiguration{
			ApiScheme: cfg.ApiScheme,
			ApiHost:   cfg.ApiHost,
			StoreId:   cfg.StoreID,
			Credentials: &credentials.Credentials{
				Method: credentials.CredentialsMethodApiToken,
				Config: &credentials.Config{
					ApiToken: cfg.ApiToken,
				},
			},
			AuthorizationModelId: cfg.AuthModelID,
			Debug:                cfg.Debug,
			HTTPClient:           &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		},
	)
	if err != nil {
		panic(fmt.Sprintf("issues setting up OpenFGA client %s", err))
	}

	c.c = fga

	c.maxChecksPerBatchCheck = cfg.MaxChecksPerBatchCheck
	if c.maxChecksPerBatchCheck <= 0 {
		c.maxChecksPerBatchCheck = defaultMaxChecksPerBatchCheck
	}

	c.maxTuplesPerWrite = cfg.MaxTuplesPerWrite
	if c.maxTuplesPerWrite <= 0 {
		c.maxTuplesPerWrite = defaultMaxTuplesPerWrite
	}

	c.wpool = cfg.Pool
	c.tracer = cfg.Tracer
	c.monitor = cfg.Monitor
	c.logger = cfg.Logger

	_ = uuid.Nil // correlation ids for batched ops are minted in prepared.go

	return c
}
