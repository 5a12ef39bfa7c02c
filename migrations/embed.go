package migrations

import "embed"

// FS holds the versioned schema migrations, one directory per backend.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
