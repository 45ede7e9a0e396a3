// Package migrations embeds the Postgres schema for the calendar store.
package migrations

import "embed"

// FS holds the golang-migrate files.
//
//go:embed *.sql
var FS embed.FS
