// Package migrations embeds the SQL migration files into the binary so
// the gateway can bring its schema up to date without shipping loose
// files alongside the executable.
package migrations

import (
	"embed"

	"github.com/hferrand/sentry-gate/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
