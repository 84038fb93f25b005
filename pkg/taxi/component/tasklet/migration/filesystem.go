package migration

import (
	"embed"
	"io/fs"
)

//go:embed resource
var rawMigrationFS embed.FS

// RunHistoryFS returns the embedded migrations, one directory per database type.
func RunHistoryFS() fs.FS {
	sub, err := fs.Sub(rawMigrationFS, "resource")
	if err != nil {
		panic(err)
	}
	return sub
}
