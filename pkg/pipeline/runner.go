package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/deps"
	"github.com/matzehuels/reqgraph/pkg/graph"
	graphio "github.com/matzehuels/reqgraph/pkg/io"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with graph caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Resolver *deps.Resolver
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner. Resolved graphs are cached in c under keys
// from keyer. A nil keyer selects [cache.DefaultKeyer]; a nil cache disables
// graph caching.
func NewRunner(resolver *deps.Resolver, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Resolver: resolver,
		Cache:    cache.Instrumented(c, "graph"),
		Keyer:    keyer,
		Logger:   logger,
	}
}

// Execute runs the complete resolve → classify → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Resolve
	resolveStart := time.Now()
	g, hit, err := r.ResolveWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Graph = g
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.Cycles = len(g.BackEdges())
	result.CacheInfo.GraphHit = hit

	var buf bytes.Buffer
	if err := graphio.WriteJSON(g, &buf); err == nil {
		result.GraphHash = cache.Hash(buf.Bytes())
	}

	r.Logger.Info("resolved dependencies",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cycles", result.Stats.Cycles,
		"cached", hit,
		"duration", result.Stats.ResolveTime)

	// Stage 2: Classify
	if opts.Levels > 0 {
		classifyStart := time.Now()
		view, err := r.Classify(ctx, g, opts)
		if err != nil {
			return nil, fmt.Errorf("classify: %w", err)
		}
		result.View = view
		result.Stats.ClassifyTime = time.Since(classifyStart)

		r.Logger.Info("built view",
			"view", opts.View,
			"levels", opts.Levels,
			"nodes", view.Graph.NodeCount(),
			"duration", result.Stats.ClassifyTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, g, result.View, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo resolves the roots with caching and reports whether
// the graph came from the cache. Graphs from a cancelled run, and graphs
// with failed lookups, are not cached.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForResolve(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.GraphKey(opts.Roots, opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			g, err := graphio.ReadJSON(bytes.NewReader(data))
			if err == nil {
				return g, true, nil
			}
			r.Logger.Debug("discarding unreadable cached graph", "error", err)
		}
	}

	r.Logger.Debug("resolving", "roots", opts.Roots, "depth", opts.MaxDepth)
	g := r.Resolver.ResolveAll(ctx, opts.Roots, opts.ResolveOptions())
	if err := ctx.Err(); err != nil {
		return g, false, err
	}

	if failed := g.FailedLookups(); failed > 0 {
		r.Logger.Warn("not caching incomplete graph", "failed_lookups", failed)
		return g, false, nil
	}

	var buf bytes.Buffer
	if err := graphio.WriteJSON(g, &buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), opts.CacheTTL); err != nil {
			r.Logger.Debug("graph cache write failed", "error", err)
		}
	}
	return g, false, nil
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*graph.Graph, error) {
	g, _, err := r.ResolveWithCacheInfo(ctx, opts)
	return g, err
}

// Classify derives the requested view from g. Ownership is recomputed on
// every call.
func (r *Runner) Classify(ctx context.Context, g *graph.Graph, opts Options) (*levels.Result, error) {
	if err := opts.ValidateForClassify(); err != nil {
		return nil, err
	}
	levelCap := opts.Levels
	if levelCap == 0 {
		levelCap = opts.MaxDepth + 1
	}
	res := levels.Build(opts.ParsedView(), g, opts.Roots, levelCap)
	observability.Resolve().OnViewBuilt(ctx, res.View.String(), res.MaxLevel, res.Graph.NodeCount())
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
