// Package db holds the SQL schema migrations.
package db

import "embed"

// Migrations contains the migration files, read by orchardctl when built with
// the embed_migrations tag.
//
//go:embed migrations/*.sql
var Migrations embed.FS
