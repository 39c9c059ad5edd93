// Package pipeline provides the resolve → classify → render pipeline shared
// by the CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: crawl PyPI from the root packages into a raw dependency graph
//  2. Classify: derive a level view (depth, unique, clusters, shared)
//  3. Render: produce DOT, SVG, PNG, PDF or JSON output
//
// Each stage can be run independently or as part of the complete pipeline.
// Resolved graphs are cached under [cache.Keyer.GraphKey], so repeated runs
// over the same roots only reclassify.
//
// # Usage
//
//	runner := pipeline.NewRunner(resolver, c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Roots:   []string{"fastapi", "httpx"},
//	    Levels:  3,
//	    View:    "shared",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := runner.Resolve(ctx, opts)
//	view, err := runner.Classify(ctx, g, opts)
//	artifacts, err := pipeline.Render(ctx, g, view, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/deps"
	"github.com/matzehuels/reqgraph/pkg/deps/python"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/graph"
	"github.com/matzehuels/reqgraph/pkg/levels"
)

// DefaultView is the view used when none is requested.
const DefaultView = "shared"

// DefaultPNGScale is the PNG resolution multiplier.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Resolve options
	Roots        []string      `json:"roots"`
	MaxDepth     int           `json:"depth"` // 0 looks up the roots only; negative selects the default
	MaxNodes     int           `json:"max_nodes,omitempty"`
	Workers      int           `json:"workers,omitempty"`
	ShareVisited bool          `json:"share_visited,omitempty"`
	RuntimeOnly  bool          `json:"runtime_only,omitempty"` // Must match the registry client; only used for cache keys
	Refresh      bool          `json:"refresh,omitempty"`
	CacheTTL     time.Duration `json:"-"`

	// Classify options. Levels 0 skips classification and renders the raw graph.
	Levels int    `json:"levels,omitempty"`
	View   string `json:"view,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	PNGScale float64  `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the raw resolved dependency graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the raw graph's JSON form.
	GraphHash string

	// View is the classified view; nil when Levels is 0.
	View *levels.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	Cycles       int // back edges found in the raw graph
	ResolveTime  time.Duration
	ClassifyTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit bool // Whether the raw graph came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return rgerrors.New(rgerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults normalizes the roots, checks every field and
// applies defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForResolve normalizes and de-duplicates the roots and applies
// resolution defaults.
func (o *Options) ValidateForResolve() error {
	roots := make([]string, 0, len(o.Roots))
	for _, r := range o.Roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := rgerrors.ValidatePythonPackageName(r); err != nil {
			return err
		}
		if n := python.Normalize(r); !slices.Contains(roots, n) {
			roots = append(roots, n)
		}
	}
	if err := rgerrors.ValidateRoots(roots); err != nil {
		return err
	}
	o.Roots = roots

	if o.MaxDepth < 0 {
		o.MaxDepth = deps.DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = deps.DefaultMaxNodes
	}
	if o.Workers <= 0 {
		o.Workers = deps.DefaultWorkers
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = deps.DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForClassify checks the level cap and view name.
func (o *Options) ValidateForClassify() error {
	if o.Levels < 0 {
		return rgerrors.New(rgerrors.ErrCodeInvalidInput, "levels must not be negative, got %d", o.Levels)
	}
	if o.Levels > 0 {
		if err := rgerrors.ValidateLevels(o.Levels); err != nil {
			return err
		}
	}
	if o.View == "" {
		o.View = DefaultView
	}
	if _, err := levels.ParseView(o.View); err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeInvalidView, err, "invalid view")
	}
	return nil
}

// ValidateForRender checks formats and applies render defaults.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForClassify(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	return ValidateFormats(o.Formats)
}

// ParsedView returns the view named by o.View.
func (o *Options) ParsedView() levels.View {
	v, err := levels.ParseView(o.View)
	if err != nil {
		return levels.ViewShared
	}
	return v
}

// GraphKeyOpts returns cache key options for the resolved graph.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		MaxDepth:     o.MaxDepth,
		MaxNodes:     o.MaxNodes,
		ShareVisited: o.ShareVisited,
		RuntimeOnly:  o.RuntimeOnly,
	}
}

// ResolveOptions returns the resolver options. Fetch failures are logged as
// warnings through o.Logger.
func (o *Options) ResolveOptions() deps.Options {
	logger := o.Logger
	return deps.Options{
		MaxDepth:     o.MaxDepth,
		MaxNodes:     o.MaxNodes,
		Workers:      o.Workers,
		CacheTTL:     o.CacheTTL,
		Refresh:      o.Refresh,
		ShareVisited: o.ShareVisited,
		Normalize:    python.Normalize,
		Logger: func(format string, args ...any) {
			if logger != nil {
				logger.Warnf(format, args...)
			}
		},
	}
}

// Describe summarizes the options for log lines.
func (o *Options) Describe() string {
	if o.Levels == 0 {
		return fmt.Sprintf("%d root(s), depth %d", len(o.Roots), o.MaxDepth)
	}
	return fmt.Sprintf("%d root(s), depth %d, %s view over %d level(s)", len(o.Roots), o.MaxDepth, o.View, o.Levels)
}
