package db

import "embed"

// EmbedMigrations carries the goose migration files for the history store.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
