// Package migrations holds the versioned schema scripts for the recall
// database. Files are named NNN_name.up.sql and applied in order.
package migrations

import "embed"

//go:embed *.up.sql *.down.sql
var FS embed.FS
