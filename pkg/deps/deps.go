package deps

import (
	"context"
	"time"
)

const (
	DefaultMaxDepth = 1              // Default dependency depth below each root
	DefaultMaxNodes = 5000           // Default maximum lookups per run
	DefaultWorkers  = 8              // Default concurrent lookups per frontier
	DefaultCacheTTL = 24 * time.Hour // Default HTTP cache duration
)

// Options configures dependency resolution behavior.
type Options struct {
	MaxDepth     int                  // Deepest level whose dependencies are looked up; roots are depth 0, negative selects the default (1)
	MaxNodes     int                  // Maximum lookups per run (default: 5000)
	Workers      int                  // Concurrent lookups within one frontier (default: 8)
	CacheTTL     time.Duration        // HTTP cache duration (default: 24h)
	Refresh      bool                 // Bypass cache for fresh data
	ShareVisited bool                 // Share one visited set across all roots of a run
	Normalize    func(string) string  // Canonical package name (default: unchanged)
	Logger       func(string, ...any) // Progress/warning callback (optional)
}

// WithDefaults returns a copy of Options with unset values replaced by
// defaults. A MaxDepth of 0 is kept: only the roots are looked up.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth < 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Normalize == nil {
		opts.Normalize = func(s string) string { return s }
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Fetcher retrieves package metadata from a registry.
type Fetcher interface {
	// Fetch retrieves package information by name. If refresh is true,
	// cached data is bypassed.
	Fetch(ctx context.Context, name string, refresh bool) (*Package, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string, refresh bool) (*Package, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, name string, refresh bool) (*Package, error) {
	return f(ctx, name, refresh)
}

// Package holds metadata fetched from a package registry.
type Package struct {
	Name         string   // Package name
	Version      string   // Latest version
	Dependencies []string // Direct dependency names
	Description  string   // Package summary
	License      string   // License identifier
	HomePage     string   // Project homepage URL
}

// Metadata converts Package fields to a map for node metadata.
func (p *Package) Metadata() map[string]any {
	m := make(map[string]any)
	if p.Version != "" {
		m["version"] = p.Version
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.License != "" {
		m["license"] = p.License
	}
	if p.HomePage != "" {
		m["homepage"] = p.HomePage
	}
	return m
}
