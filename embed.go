// Package checkin embeds assets that must ship with the binary.
package checkin

import "embed"

// Migrations contains the SQL migration files applied by the migrate
// subcommand.
//
//go:embed migrations/*.sql
var Migrations embed.FS
