package catalog

import (
	"path/filepath"
	"strings"
)

// ResolveURI turns a tile location from the catalog into an absolute form.
//
// URLs (anything with a "scheme://" prefix) and absolute paths are returned
// unchanged. Relative paths, including the "./tile.laz" form STAC uses for
// "next to the catalog", are joined to baseDir.
func ResolveURI(uri, baseDir string) string {
	if uri == "" || HasScheme(uri) || filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(baseDir, filepath.FromSlash(uri))
}

// HasScheme reports whether uri starts with a URL scheme followed by "://".
// Single-letter schemes are rejected so Windows drive letters stay paths.
func HasScheme(uri string) bool {
	i := strings.Index(uri, "://")
	if i < 2 {
		return false
	}
	for j, c := range uri[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
