package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/reqgraph/pkg/graph"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/render"
)

// Palette holds the fill colors assigned by level; level 1 uses the first
// entry and the list repeats for deeper levels.
var Palette = []string{"#1976d2", "#388e3c", "#fbc02d", "#e64a19", "#7b1fa2", "#00838f", "#c2185b"}

const (
	// UnclassifiedColor fills nodes without a level.
	UnclassifiedColor = "#888"
	// SharedColor fills nodes owned by more than one root.
	SharedColor = "#8e24aa"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the level and metadata in node labels.
	// When false, only the display label is shown.
	Detailed bool
}

// LevelColor returns the fill color for a level.
func LevelColor(level int) string {
	if level <= 0 {
		return UnclassifiedColor
	}
	return Palette[(level-1)%len(Palette)]
}

// ToDOT converts a view result to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Nodes are filled by level. Roots get a bold double border, shared nodes
// are purple and bold, and cluster nodes are drawn as notes listing their
// members. In the unique view each node's tooltip names its owning root.
func ToDOT(res *levels.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Arial\", fontcolor=\"#111\", fontsize=16, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#666666\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if res == nil || res.Graph == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	roots := make(map[string]bool, len(res.Roots))
	for _, r := range res.Roots {
		roots[r] = true
	}

	for _, n := range res.Graph.Nodes() {
		attrs := fmtAttrs(res, *n, roots[n.ID], opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range res.Graph.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLevel(res *levels.Result, n graph.Node) int {
	if n.Level > 0 {
		return n.Level
	}
	return res.Levels[n.ID]
}

func fmtLabel(n graph.Node, level int, detailed bool) string {
	label := n.DisplayLabel()
	if n.IsCluster() {
		return label + "\n" + strings.Join(n.Cluster.Members, "\n")
	}
	if !detailed {
		return label
	}

	parts := []string{fmt.Sprintf("level: %d", level)}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(res *levels.Result, n graph.Node, root, detailed bool) []string {
	level := nodeLevel(res, n)
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, level, detailed))}

	switch {
	case n.IsCluster():
		attrs = append(attrs,
			"shape=note",
			"style=filled",
			fmt.Sprintf("fillcolor=%q", LevelColor(level)),
			fmt.Sprintf("tooltip=%q", strings.Join(n.Cluster.Members, ", ")),
		)
		return attrs
	case res.Shared[n.ID]:
		attrs = append(attrs,
			"style=\"rounded,filled,bold\"",
			fmt.Sprintf("fillcolor=%q", SharedColor),
			"fontname=\"Arial Bold\"",
		)
	case root:
		attrs = append(attrs,
			"style=\"rounded,filled,bold\"",
			fmt.Sprintf("fillcolor=%q", LevelColor(level)),
			"peripheries=2",
			"fontname=\"Arial Bold\"",
		)
	default:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", LevelColor(level)))
	}

	if owner, ok := res.Owners[n.ID]; ok && owner != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", "owner: "+owner))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG. A scale of 1 (or less) uses
// Graphviz directly; larger scales go through SVG and rsvg-convert so text
// stays sharp on high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	if scale <= 1 {
		return renderFormat(ctx, dot, graphviz.PNG)
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
