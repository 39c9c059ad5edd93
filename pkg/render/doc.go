// Package render converts rendered dependency diagrams between output
// formats.
//
// Diagrams are produced as SVG by the [nodelink] subpackage. [ToPDF] and
// [ToPNG] convert any SVG using the external rsvg-convert tool (from
// librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [Available] reports whether the tool is installed so callers can fall back
// to SVG output.
//
// [nodelink]: github.com/matzehuels/reqgraph/pkg/render/nodelink
package render
