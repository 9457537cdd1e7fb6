// Package migrations embeds the versioned schema for each supported
// database so the fieldkeeper binary carries its own migrations.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
