// Package integrations provides the HTTP plumbing shared by package
// registry clients.
//
// Registry-specific clients live in subpackages; [pypi] is the only one.
// They embed [Client], which provides:
//
//   - response caching through any [cache.Cache] backend, keyed by a
//     per-registry namespace
//   - a bounded request timeout ([DefaultTimeout] unless overridden)
//   - optional retries of transient failures ([WithAttempts]); a single
//     attempt by default
//   - optional request throttling ([WithRateLimit])
//   - HTTP events reported to [observability.HTTP]
//
// Errors are classified with the sentinels [ErrNotFound] and [ErrNetwork].
//
// [pypi]: github.com/matzehuels/reqgraph/pkg/integrations/pypi
package integrations
