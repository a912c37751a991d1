// Package mysql embeds the MySQL schema of the order ledger.
package mysql

import "embed"

// FS holds the *.up.sql migrations applied at startup.
//
//go:embed *.up.sql
var FS embed.FS
