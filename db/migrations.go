// Package db embeds the goose migrations, one directory per supported dialect.
package db

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrations returns the migration files for driver rooted at ".".
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	return fs.Sub(migrations, "migrations/"+driver)
}
