package locales

import (
	"embed"
	"io/fs"
)

//go:embed *.json
var files embed.FS

// FS returns the locale files compiled into the binary.
func FS() fs.FS {
	return files
}
