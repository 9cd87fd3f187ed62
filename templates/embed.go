// Package templates embeds the page layout and fragment templates.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed layouts/*.tmpl partials/*.tmpl
var files embed.FS

// FS returns the embedded template tree.
func FS() fs.FS { return files }
