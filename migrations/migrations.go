// Package migrations embeds the SQL migration files applied by goose at
// startup.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
