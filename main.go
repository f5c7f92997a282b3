// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

package main

import "github.com/canonical/identity-platform-admin-ui/cmd"

func main() {
	cmd.Execute()
}
