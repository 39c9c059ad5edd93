package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/reqgraph/pkg/graph"
	graphio "github.com/matzehuels/reqgraph/pkg/io"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. When view is
// nil the raw graph g is drawn unclassified and JSON output is the raw
// graph document.
func Render(ctx context.Context, g *graph.Graph, view *levels.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	target := view
	if target == nil {
		target = Unclassified(g, opts.Roots)
	}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if format != FormatJSON && dot == "" {
			dot = nodelink.ToDOT(target, nodelink.Options{Detailed: opts.Detailed})
		}

		var data []byte
		var err error
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.PNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			data, err = renderJSON(g, view)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Unclassified wraps a raw graph in a view result without levels, so it can
// be drawn with the node-link renderer. Roots keep their styling.
func Unclassified(g *graph.Graph, roots []string) *levels.Result {
	if g == nil {
		g = graph.New(nil)
	}
	return &levels.Result{
		View:   levels.ViewDepth,
		Roots:  roots,
		Graph:  g,
		Levels: levels.LevelMap{},
	}
}

func renderJSON(g *graph.Graph, view *levels.Result) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if view != nil {
		err = graphio.WriteResult(view, &buf)
	} else {
		err = graphio.WriteJSON(g, &buf)
	}
	return buf.Bytes(), err
}
