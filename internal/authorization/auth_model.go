// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package authorization

import (
	_ "embed"
	"encoding/json"
	"fmt"

	openfga "github.com/openfga/go-sdk"
	"github.com/openfga/language/pkg/go/transformer"
	"google.golang.org/protobuf/encoding/protojson"
)

//go:embed railway_model.fga
var railwaySchema string

// AuthModel is the typed relation graph's authorization model, compiled
// once at package init time from the DSL source. Panicking here is
// deliberate: a malformed model is a build-time defect, not a runtime one.
//
// Taken from
// https://github.com/openfga/cli/blob/d5bfb08cd540dc7c10737bcda12dbc292a649e22/internal/authorizationmodel/model.go#L156
var AuthModel = func() openfga.AuthorizationModel {
	var jsonAuthModel openfga.AuthorizationModel

	parsedAuthModel, err := transformer.TransformDSLToProto(railwaySchema)
	if err != nil {
		panic(fmt.Errorf("failed to transform due to %w", err))
	}

	bytes, err := protojson.Marshal(parsedAuthModel)
	if err != nil {
		panic(fmt.Errorf("failed to transform due to %w", err))
	}

	if err := json.Unmarshal(bytes, &jsonAuthModel); err != nil {
		panic(fmt.Errorf("failed to transform due to %w", err))
	}

	return jsonAuthModel
}()

// WriteAuthorizationModelRequest builds the request body to publish
// AuthModel to a store for the first time, or after a DSL change.
func WriteAuthorizationModelRequest() openfga.WriteAuthorizationModelRequest {
	return openfga.WriteAuthorizationModelRequest{
		SchemaVersion:   AuthModel.SchemaVersion,
		TypeDefinitions: AuthModel.TypeDefinitions,
		Conditions:      AuthModel.Conditions,
	}
}
