// Package migrations embeds the SQL schema migrations for every supported dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Directories inside FS, one per dialect
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
