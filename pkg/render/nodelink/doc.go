// Package nodelink renders classified dependency views as node-link
// diagrams.
//
// # Usage
//
// Convert a [levels.Result] to DOT format, then render to SVG:
//
//	res := levels.SharedNodes(g, roots, 3)
//	dot := nodelink.ToDOT(res, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Styling
//
// Nodes are filled by level from [Palette]; unclassified nodes are grey.
// Roots are bold with a double border. Nodes in [levels.Result.Shared] are
// filled with [SharedColor]. Cluster nodes are drawn as notes whose label
// and tooltip list their members, and in the unique view every node's
// tooltip names its owning root.
//
// # Dependencies
//
// SVG and 1x PNG rendering run in-process through
// [github.com/goccy/go-graphviz]. PDF and scaled PNG conversion require
// librsvg (rsvg-convert).
package nodelink
