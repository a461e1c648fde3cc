package postgres

import "embed"

// Migrations holds the goose SQL migrations. The server binary applies
// them with goose.SetBaseFS(Migrations) against MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"
