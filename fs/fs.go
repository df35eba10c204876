// Package appfs embeds the static files the applications need at runtime:
// database migrations, email templates and seed data.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "assets/templates/email"
	CommonPasswords   = "assets/common-passwords.txt.gz"
	DefaultRanks      = "assets/ranks.yaml"
)
