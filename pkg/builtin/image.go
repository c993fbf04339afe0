package builtin

import (
	"embed"
	"io/fs"
)

//go:embed module.yaml doc.go image.go metadata.go uppercase.go zz_generated.plugins.go
var image embed.FS

// Image returns this package's source and manifest as a module image, for
// loading into an isolated context from a binary that has no source tree
func Image() fs.FS {
	return image
}
