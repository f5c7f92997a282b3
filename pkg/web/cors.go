// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package web

import (
	"net/http"

	"github.com/go-chi/cors"
)

func middlewareCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Remote-User-Identity", "X-Remote-User-Name", "X-Impersonate", "X-Osrd-Skip-Authz"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
