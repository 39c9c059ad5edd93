package deps

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reqgraph/pkg/graph"
	"github.com/matzehuels/reqgraph/pkg/observability"
)

// Resolver builds dependency graphs by crawling a Fetcher breadth first.
//
// Resolution never fails: a package whose lookup fails stays in the graph
// without dependencies, and a cancelled context returns the graph built so
// far.
type Resolver struct {
	name    string
	fetcher Fetcher
}

// NewResolver creates a Resolver named after its registry (e.g. "pypi").
func NewResolver(name string, fetcher Fetcher) *Resolver {
	return &Resolver{name: name, fetcher: fetcher}
}

// Name returns the registry name.
func (r *Resolver) Name() string { return r.name }

// Resolve crawls the transitive dependencies of root.
func (r *Resolver) Resolve(ctx context.Context, root string, opts Options) *graph.Graph {
	return r.ResolveAll(ctx, []string{root}, opts)
}

// ResolveAll crawls every root and merges the results into one graph.
// Each root starts with a fresh visited set unless opts.ShareVisited is
// set. Edges from all roots accumulate; a package reached from several roots
// appears once.
//
// The graph metadata records the registry, the normalized roots (see
// [graph.Graph.Roots]) and the number of failed lookups (see
// [graph.Graph.FailedLookups]).
func (r *Resolver) ResolveAll(ctx context.Context, roots []string, opts Options) *graph.Graph {
	opts = opts.WithDefaults()
	names := make([]string, 0, len(roots))
	for _, root := range roots {
		root = opts.Normalize(strings.TrimSpace(root))
		if root != "" && !slices.Contains(names, root) {
			names = append(names, root)
		}
	}

	c := &crawl{
		ctx:     ctx,
		opts:    opts,
		fetch:   r.fetcher.Fetch,
		g:       graph.New(graph.Metadata{graph.MetaRegistry: r.name, graph.MetaRoots: names}),
		visited: make(map[string]bool),
	}

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, roots)
	start := time.Now()

	for _, root := range names {
		if ctx.Err() != nil {
			break
		}
		if !opts.ShareVisited {
			c.visited = make(map[string]bool)
		}
		c.run(root)
	}
	c.g.Meta()[graph.MetaFailedLookups] = c.failed

	hooks.OnResolveComplete(ctx, roots, c.g.NodeCount(), c.g.EdgeCount(), time.Since(start))
	return c.g
}

// crawl holds the state of one resolution run. Only the coordinating
// goroutine touches g, visited and lookups; workers only fetch.
type crawl struct {
	ctx   context.Context
	opts  Options
	fetch func(context.Context, string, bool) (*Package, error)

	g       *graph.Graph
	visited map[string]bool
	lookups int
	failed  int
}

type job struct {
	name  string
	depth int
}

type result struct {
	pkg *Package
	err error
}

// run expands root one frontier at a time.
func (c *crawl) run(root string) {
	c.g.EnsureNode(root)
	frontier := []job{{name: root}}
	for len(frontier) > 0 && c.ctx.Err() == nil {
		batch := c.admit(frontier)
		results := c.fetchAll(batch)
		frontier = c.expand(batch, results)
	}
}

// admit filters a frontier down to the jobs that need a lookup, marking
// them visited. Packages beyond the depth budget are left unvisited so a
// later, shallower path can still expand them.
func (c *crawl) admit(frontier []job) []job {
	var batch []job
	for _, j := range frontier {
		if c.visited[j.name] || j.depth > c.opts.MaxDepth {
			continue
		}
		c.visited[j.name] = true
		if c.lookups >= c.opts.MaxNodes {
			c.opts.Logger("node limit reached (%d), not expanding %s", c.opts.MaxNodes, j.name)
			continue
		}
		c.lookups++
		batch = append(batch, j)
	}
	return batch
}

// fetchAll looks up a batch with bounded concurrency. Results are indexed
// like batch, so merge order does not depend on scheduling.
func (c *crawl) fetchAll(batch []job) []result {
	results := make([]result, len(batch))
	var eg errgroup.Group
	eg.SetLimit(c.opts.Workers)
	for i, j := range batch {
		eg.Go(func() error {
			pkg, err := c.fetch(c.ctx, j.name, c.opts.Refresh)
			results[i] = result{pkg: pkg, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// expand records each fetched package's dependencies and returns the next
// frontier.
func (c *crawl) expand(batch []job, results []result) []job {
	var next []job
	for i, j := range batch {
		res := results[i]
		if res.err != nil || res.pkg == nil {
			if c.ctx.Err() == nil {
				c.failed++
				c.opts.Logger("fetch failed: %s: %v", j.name, res.err)
				observability.Resolve().OnFetchFailed(c.ctx, j.name, res.err)
			}
			continue
		}

		if n, ok := c.g.Node(j.name); ok {
			if meta := res.pkg.Metadata(); len(meta) > 0 {
				n.Meta = meta
			}
		}

		for _, dep := range c.dependencies(j.name, res.pkg.Dependencies) {
			c.g.EnsureNode(dep)
			_ = c.g.AddEdge(graph.Edge{From: j.name, To: dep})
			next = append(next, job{name: dep, depth: j.depth + 1})
		}
	}
	return next
}

// dependencies normalizes and de-duplicates declared names, dropping empty
// names and the package itself.
func (c *crawl) dependencies(parent string, declared []string) []string {
	seen := make(map[string]bool, len(declared))
	out := make([]string, 0, len(declared))
	for _, d := range declared {
		d = c.opts.Normalize(strings.TrimSpace(d))
		if d == "" || strings.EqualFold(d, parent) || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
