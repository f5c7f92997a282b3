// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package config

// EnvSpec is the environment configuration needed for the authorization
// service to start.
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	LogFile  string `envconfig:"log_file" default:"log.txt"`

	Port int `envconfig:"port" default:"8080"`

	Debug bool `envconfig:"debug" default:"false"`

	DSN                 string `envconfig:"dsn" required:"true"`
	DBQueryCacheEnabled bool   `envconfig:"db_query_cache_enabled" default:"true"`

	ApiScheme string `envconfig:"openfga_api_scheme" default:"http"`
	ApiHost   string `envconfig:"openfga_api_host"`
	ApiToken  string `envconfig:"openfga_api_token"`
	StoreId   string `envconfig:"openfga_store_id"`
	ModelId   string `envconfig:"openfga_authorization_model_id" default:""`

	MaxChecksPerBatchCheck int `envconfig:"openfga_max_checks_per_batch_check" default:"50"`
	MaxTuplesPerWrite      int `envconfig:"openfga_max_tuples_per_write" default:"100"`

	AuthorizationEnabled   bool `envconfig:"authorization_enabled" default:"true"`
	SkipAuthzHeaderEnabled bool `envconfig:"skip_authz_header_enabled" default:"false"`

	OpenFGAWorkersTotal int `envconfig:"openfga_workers_total" default:"150"`

	HealthcheckTimeoutSeconds int `envconfig:"healthcheck_timeout_seconds" default:"5"`
}
