package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsEmbed embed.FS

// Migrations returns the embedded migration files rooted at migrations/.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsEmbed, "migrations")
	if err != nil {
		panic(err) // embed path is fixed at compile time
	}
	return sub
}
