// Package pkg provides the core libraries for branchview, a viewer for
// branching conversations.
//
// # Overview
//
// A branching conversation is a DAG of messages: every reply points at the
// message it answers, and merged messages join several branches. branchview
// lays such graphs out as layered diagrams and replays their growth over
// time. The pkg directory is organized as:
//
//  1. [graph] - Wire types for graphs and computed layouts (JSON)
//  2. [dag] - Row-indexed DAG with crossing counting, plus [dag/transform]
//     for longest-path layering
//  3. [layout] - The layout engine: ranks, ordering, positions, anchors
//  4. [timeline] - Visibility windows and the playback player
//  5. [render] - DOT, SVG, PNG and PDF output
//  6. [pipeline] - Orchestration (layout → render) shared by CLI and server
//  7. [cache], [config], [errors], [observability] - Supporting infrastructure
//
// # Architecture
//
//	JSONL transcript / graph JSON
//	         ↓
//	    [transcript] package (import)
//	         ↓
//	    [layout] package (rank, order, place)
//	         ↓
//	    [timeline] package (optional snapshot)
//	         ↓
//	    [render] package (DOT/SVG/PNG/PDF/JSON)
//
// # Quick Start
//
//	g, _, _ := transcript.ReadFile("chat.jsonl", transcript.Options{})
//	l := layout.New(layout.DefaultConfig()).Layout(g.Nodes, g.Edges, layout.LR).Export()
//
//	w := timeline.NewWindow(graph.Timestamps(l.Nodes), 0.5, time.Now())
//	l.Nodes, l.Edges = timeline.Filter(l.Nodes, l.Edges, w)
//
//	svg, _ := nodelink.RenderSVG(ctx, nodelink.ToDOT(l, nodelink.Options{}))
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/graph
// [dag]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/dag/transform
// [layout]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/layout
// [timeline]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/timeline
// [render]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/observability
// [transcript]: https://pkg.go.dev/github.com/matzehuels/branchview/pkg/transcript
package pkg
