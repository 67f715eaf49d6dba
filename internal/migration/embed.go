// Package migration applies the embedded SQL schema files at startup.
package migration

import "embed"

const migrationsDir = "migrations"

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS
