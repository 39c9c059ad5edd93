package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxLevels bounds the level cap accepted at the CLI and API boundary.
const MaxLevels = 64

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}

	return nil
}

// ValidateRoots checks a root list: it must be non-empty and every entry
// must be a valid Python package name.
func ValidateRoots(roots []string) error {
	if len(roots) == 0 {
		return New(ErrCodeEmptyRoots, "no root packages given")
	}
	for _, r := range roots {
		if err := ValidatePythonPackageName(r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLevels checks a classification level cap.
func ValidateLevels(n int) error {
	if n < 1 || n > MaxLevels {
		return New(ErrCodeInvalidInput, "levels must be between 1 and %d, got %d", MaxLevels, n)
	}
	return nil
}

// ValidateManifestFilename validates a manifest filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateManifestFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be a hidden file")
	}

	return nil
}

var outputFormats = map[string]bool{".dot": true, ".svg": true, ".png": true, ".pdf": true, ".json": true}

// ValidateOutputPath checks that path ends in a supported output extension
// and returns the format name without the dot.
func ValidateOutputPath(path string) (string, error) {
	if path == "" {
		return "", New(ErrCodeInvalidFormat, "output path cannot be empty")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !outputFormats[ext] {
		return "", New(ErrCodeInvalidFormat, "unsupported output format %q (use .dot, .svg, .png, .pdf or .json)", ext)
	}
	return ext[1:], nil
}
