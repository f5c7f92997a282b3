// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package migrations embeds the goose SQL migrations for the directory
// database: the user, group and group_member tables the typed relation graph's
// storage.DirectoryRepository collaborator reads and writes.
package migrations

import "embed"

//go:embed *.sql
var EmbedMigrations embed.FS
