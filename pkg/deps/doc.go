// Package deps resolves transitive dependency graphs from a package
// registry.
//
// # Resolving Dependencies
//
// A [Resolver] wraps a [Fetcher], the lookup service that returns a
// package's direct dependencies. [Resolver.ResolveAll] crawls every root and
// merges the results into one [graph.Graph]:
//
//	r := deps.NewResolver("pypi", fetcher)
//	g := r.ResolveAll(ctx, []string{"fastapi", "httpx"}, deps.Options{
//	    MaxDepth: 2,
//	    Workers:  8,
//	})
//
// The crawl is breadth first, one frontier at a time:
//
//  1. Each package in the frontier that is not yet visited and not deeper
//     than MaxDepth is looked up (roots are depth 0).
//  2. Lookups within a frontier run concurrently, bounded by Workers.
//  3. Results are merged in frontier order, so the graph is the same for
//     any worker count.
//  4. Each dependency becomes a node and an edge, and joins the next
//     frontier one level deeper.
//
// Packages below the depth budget appear as childless nodes. Self
// references and repeated names in one declaration are dropped.
//
// # Failure Semantics
//
// Resolution never returns an error. A failed lookup leaves the package in
// the graph without dependencies and is reported through Options.Logger.
// A cancelled context stops the crawl and returns what was built so far.
//
// # Visited Sets
//
// Each root gets its own visited set, so a package shared by two roots is
// looked up once per root (registry responses are cached, so the second
// lookup is cheap). Set Options.ShareVisited to look every package up at
// most once per run.
//
// # Options
//
// [Options] controls resolution behavior:
//
//   - MaxDepth: dependency depth below each root; 0 looks up the roots
//     only, a negative value selects the default (1)
//   - MaxNodes: maximum lookups per run (default 5000)
//   - Workers: concurrent lookups per frontier (default 8)
//   - CacheTTL: how long registry responses are cached (default 24h)
//   - Refresh: bypass cached responses
//   - ShareVisited: one visited set for the whole run
//   - Normalize: canonical package names (PEP 503 for Python)
//   - Logger: warning callback
//
// # Manifests
//
// Root packages are read from manifest files through [ManifestParser];
// [DetectManifest] picks the parser for a file name.
package deps
