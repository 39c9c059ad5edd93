// Package python wires PyPI into dependency resolution and reads root
// packages from Python manifests.
package python

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/reqgraph/pkg/deps"
	"github.com/matzehuels/reqgraph/pkg/integrations"
	"github.com/matzehuels/reqgraph/pkg/integrations/pypi"
)

// ErrNoPackages is returned by [ParseRoots] when a manifest declares no
// packages.
var ErrNoPackages = errors.New("no packages found")

// NewResolver returns a resolver backed by client. Package names are PEP 503
// normalized.
func NewResolver(client *pypi.Client) *deps.Resolver {
	return deps.NewResolver("pypi", NewFetcher(client))
}

// NewFetcher adapts a PyPI client to [deps.Fetcher].
func NewFetcher(client *pypi.Client) deps.Fetcher {
	return fetcher{client}
}

// Normalize is the PEP 503 name normalization used for graph node IDs.
func Normalize(name string) string {
	return integrations.NormalizePkgName(name)
}

type fetcher struct{ *pypi.Client }

func (f fetcher) Fetch(ctx context.Context, name string, refresh bool) (*deps.Package, error) {
	p, err := f.FetchPackage(ctx, name, refresh)
	if err != nil {
		return nil, err
	}
	return &deps.Package{
		Name:         p.Name,
		Version:      p.Version,
		Dependencies: p.Dependencies,
		Description:  p.Summary,
		License:      p.License,
		HomePage:     p.HomePage,
	}, nil
}

// ManifestParsers returns the supported root manifest parsers.
func ManifestParsers() []deps.ManifestParser {
	return []deps.ManifestParser{Requirements{}, Pyproject{}}
}

// ParseRoots reads the root packages from a requirements file or
// pyproject.toml. Files with other names are read as requirements files.
// Returns ErrNoPackages when the file declares nothing.
func ParseRoots(path string) ([]string, error) {
	parser, err := deps.DetectManifest(path, ManifestParsers()...)
	if err != nil {
		parser = Requirements{}
	}
	roots, err := parser.Parse(path)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPackages, path)
	}
	return roots, nil
}
