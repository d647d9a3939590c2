// Package fileutil names the files produced by generation tools.
package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// DefaultExt is used when the source path has no extension
const DefaultExt = ".png"

// NewFilePath returns a new unique path in the directory of origin,
// named after the origin file and the function that produced it:
// `<dir>/<id>_<funcName>_<origin base>.<ext>`.
// If origin is empty, the file is placed in the `image` folder.
// Previous `<id>_<func>_` prefixes of origin are dropped, so the name
// does not grow when outputs are chained.
func NewFilePath(origin, funcName, ext string) string {
	if origin == "" {
		origin = filepath.Join("image", "output")
	}
	dir := filepath.Dir(origin)
	base := filepath.Base(origin)
	if ext == "" {
		ext = filepath.Ext(base)
		if ext == "" {
			ext = DefaultExt
		}
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if parts := strings.Split(name, "_"); len(parts) >= 3 && isID(parts[0]) {
		name = strings.Join(parts[2:], "_")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return filepath.Join(dir, id+"_"+funcName+"_"+name+ext)
}

// EnsureDir creates the parent folder of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create folder %s", dir)
	}
	return nil
}

func isID(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
