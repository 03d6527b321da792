// Package migrations embeds the Postgres schema applied at start-up.
package migrations

import "embed"

// FS holds the ordered *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
