package migrations

import "embed"

// FS contains embedded SQLite migrations for route storage.
//
//go:embed *.sql
var FS embed.FS
