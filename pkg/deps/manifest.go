package deps

import (
	"fmt"
	"path/filepath"
)

// ManifestParser reads root package names from a local manifest file such
// as requirements.txt or pyproject.toml.
type ManifestParser interface {
	// Parse reads the manifest at path and returns the declared root
	// packages, normalized, distinct and in file order.
	Parse(path string) ([]string, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Type returns the manifest type identifier (e.g., "requirements").
	Type() string
}

// DetectManifest finds a parser that supports the given file path.
// The first matching parser wins. Returns an error if none matches.
func DetectManifest(path string, parsers ...ManifestParser) (ManifestParser, error) {
	name := filepath.Base(path)
	for _, p := range parsers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unsupported manifest: %s", name)
}
