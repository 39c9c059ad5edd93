package integrations

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNotFound is returned when a package doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// unexpected status codes).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the default registry timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

var separatorRE = regexp.MustCompile(`[-_.]+`)

// NormalizePkgName converts a package name to its canonical PEP 503 form:
// lowercase, with every run of "-", "_" and "." replaced by a single "-".
func NormalizePkgName(name string) string {
	return separatorRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
