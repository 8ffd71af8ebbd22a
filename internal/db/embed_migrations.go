package db

import "embed"

// MigrationFS embeds the client_kv schema used by the postgres session backend.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
