// Package public embeds the static assets served under /assets.
package public

import (
	"embed"
	"io/fs"
)

//go:embed assets
var files embed.FS

// FS returns the embedded tree rooted at the public directory.
func FS() fs.FS { return files }
