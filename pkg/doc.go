// Package pkg provides the core libraries for reqgraph, a dependency graph
// builder for Python projects.
//
// # Overview
//
// reqgraph reads the root packages of a project from requirements.txt or
// pyproject.toml, resolves their dependencies against PyPI and draws the
// result as a Graphviz node-link diagram. Packages can be grouped into
// levels by their distance from each root, and nodes reached from several
// roots can be pulled out as shared. The pkg directory is organized into:
//
//  1. [deps] - Breadth-first dependency resolution and manifest parsing
//  2. [graph] - The directed dependency graph and cycle detection
//  3. [levels] - Level classification and the depth/unique/clusters/shared views
//  4. [render] - DOT generation and SVG/PNG/PDF rendering
//  5. [integrations] - The PyPI JSON API client and shared HTTP plumbing
//  6. [cache] - Response and graph caches (file, memory, Redis, MongoDB)
//  7. [pipeline] - Orchestration (resolve → classify → render)
//  8. [io] - JSON import and export of graphs and views
//
// # Architecture
//
// The typical data flow through reqgraph:
//
//	requirements.txt / pyproject.toml
//	         ↓
//	    [deps/python] package (read roots, resolve against PyPI)
//	         ↓
//	    [graph] package (nodes, edges, sources)
//	         ↓
//	    [levels] package (classify and build a view)
//	         ↓
//	    [render/nodelink] package (DOT + Graphviz)
//	         ↓
//	    DOT/SVG/PNG/PDF/JSON output
//
// # Quick Start
//
// Resolve the dependencies of two packages and render the shared view:
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/reqgraph/pkg/cache"
//	    "github.com/matzehuels/reqgraph/pkg/deps/python"
//	    "github.com/matzehuels/reqgraph/pkg/integrations/pypi"
//	    "github.com/matzehuels/reqgraph/pkg/pipeline"
//	)
//
//	client := pypi.NewClient(cache.NewNullCache(), 0, pypi.Options{})
//	runner := pipeline.NewRunner(python.NewResolver(client), nil, nil, nil)
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Roots:    []string{"flask", "httpx"},
//	    MaxDepth: 2,
//	    Levels:   3,
//	    View:     "shared",
//	    Formats:  []string{"svg"},
//	})
//	// res.Artifacts["svg"] holds the rendered diagram.
//
// # Command Line
//
// The reqgraph binary in cmd/reqgraph wraps these packages:
//
//	reqgraph graph -f requirements.txt -d 2 -n 3 --view shared
//	reqgraph classify graph.json --view clusters
//	reqgraph render graph.clusters.json -o graph.png
//	reqgraph serve --addr :8080
package pkg
