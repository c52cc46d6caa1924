package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NextAvailablePath returns the first unused path of the form base.ext,
// base_001.ext, base_002.ext, ... inside dir. Existing files are never
// overwritten; the caller gets a name that did not exist at the time of the
// call.
func NextAvailablePath(dir, base, ext string) string {
	path := filepath.Join(dir, base+"."+ext)
	for counter := 1; pathExists(path); counter++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%03d.%s", base, counter, ext))
	}
	return path
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
