// Package migrations embeds the PostgreSQL schema.
package migrations

import "embed"

// FS holds every *.up.sql file, applied in lexical order by database.RunMigrations.
//
//go:embed *.up.sql
var FS embed.FS
