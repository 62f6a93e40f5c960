// Package migrations embeds the goose migrations for the secure store schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
