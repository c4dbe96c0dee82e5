package payload

import (
	"embed"
	"io/fs"
)

// data is populated by esptools-bundle before the release build. The
// checked-in manifest lists no tools.
//
//go:embed data
var data embed.FS

// Embedded returns the payload directory compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}
