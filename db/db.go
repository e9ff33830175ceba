// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package db

import "embed"

//go:embed migrations-chatstore/*.sql
var ChatstoreMigrationFS embed.FS
