// Package assets embeds the files shipped inside the binaries:
// SQL migrations, email templates and the default evaluation templates.
package assets

import "embed"

//go:embed migrations/*.sql templates/email/* seeds/*.yaml
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	SeedsDir          = "seeds"
)
