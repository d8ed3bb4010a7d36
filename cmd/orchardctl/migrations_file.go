//go:build !embed_migrations

package main

import (
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

// createMigrateInstance reads migrations from ORCHARD_MIGRATIONS_PATH, or
// db/migrations relative to the working directory.
func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	path := defaultMigrationsPath
	if p := os.Getenv("ORCHARD_MIGRATIONS_PATH"); p != "" {
		path = p
	}
	return migrate.New("file://"+path, dbURL)
}
