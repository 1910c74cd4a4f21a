// Package render turns computed conversation layouts into images.
//
// The [nodelink] subpackage emits Graphviz DOT with every message pinned at
// its layout position and renders it in-process to SVG or PNG. [ToPDF]
// converts any SVG to PDF with the external rsvg-convert tool.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/branchview/pkg/render/nodelink
package render
