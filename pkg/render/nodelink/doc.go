// Package nodelink draws laid-out conversations as node-link diagrams with
// Graphviz.
//
// # Overview
//
// Positions come from the layout engine, not from Graphviz: [ToDOT] pins every
// placed message at its computed center (pos="x,y!") and renders with the
// neato engine, which honors pinned positions and only routes the edges.
// Connectors leave and enter through the compass ports matching each
// message's anchor sides, so a top-to-bottom layout draws edges from the
// bottom of a message to the top of its reply.
//
// # Usage
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Timeline Snapshots
//
// [Options.Visible] hides messages, for example those after a timeline
// cutoff. Edges touching a hidden message are hidden too, while visible
// messages keep their positions, so successive snapshots line up.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
