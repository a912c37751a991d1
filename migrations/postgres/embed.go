// Package postgres embeds the PostgreSQL schema of the order ledger.
package postgres

import "embed"

// FS holds the *.up.sql migrations applied at startup.
//
//go:embed *.up.sql
var FS embed.FS
