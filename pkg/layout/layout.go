package layout

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/branchview/pkg/dag"
	"github.com/matzehuels/branchview/pkg/dag/transform"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/observability"
)

// Result is the outcome of a layout call.
//
// Nodes holds one entry per input node, in input order: placed nodes carry a
// top-left Position, their Size and anchor sides; unplaced ones are returned
// unmodified.
// Edges is the input edge list, unchanged. Ranks maps each placed node ID to
// its rank.
type Result struct {
	Direction Direction
	Nodes     []graph.Node
	Edges     []graph.Edge
	Ranks     map[string]int
	Width     float64
	Height    float64
}

// Export converts the result to its serialization format.
func (r Result) Export() graph.Layout {
	return graph.Layout{
		Direction: string(r.Direction),
		Width:     r.Width,
		Height:    r.Height,
		Nodes:     r.Nodes,
		Edges:     r.Edges,
		Ranks:     r.Ranks,
	}
}

// Engine computes layered layouts. The zero value is not usable; use [New].
//
// An Engine holds configuration only. It is safe for concurrent use as long
// as its fields are not modified while layouts are running.
type Engine struct {
	Config    Config
	Footprint Footprint   // nil: FixedFootprint(Config.NodeWidth, Config.NodeHeight)
	Orderer   Orderer     // nil: Barycentric{Passes: Config.OrderingPasses}
	Logger    *log.Logger // nil: log.Default()
}

// New creates an Engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// Layout lays out nodes and edges with the default configuration.
func Layout(nodes []graph.Node, edges []graph.Edge, dir Direction) Result {
	return New(DefaultConfig()).Layout(nodes, edges, dir)
}

// Layout computes positions for every node. See [Engine.LayoutContext].
func (e *Engine) Layout(nodes []graph.Node, edges []graph.Edge, dir Direction) Result {
	return e.LayoutContext(context.Background(), nodes, edges, dir)
}

// LayoutContext computes positions for every node. The context is passed to
// observability hooks only; layout itself is synchronous and O(V+E) per
// ordering pass.
//
// Inputs are never modified. Any direction other than LR is treated as TB.
func (e *Engine) LayoutContext(ctx context.Context, nodes []graph.Node, edges []graph.Edge, dir Direction) Result {
	dir = dir.Normalize()
	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, string(dir), len(nodes))

	g, placed := buildSolver(nodes, edges)
	transform.AssignLayers(g)
	orders := e.orderer().OrderRows(g)
	centers, width, height := e.place(g, orders, dir)

	target, source := dir.Anchors()
	fp := e.footprint()
	out := make([]graph.Node, len(nodes))
	ranks := make(map[string]int, len(centers))
	count := 0
	for i, n := range nodes {
		c, ok := centers[n.ID]
		if !placed[i] || !ok {
			out[i] = n
			continue
		}
		size := fp(n.ID)
		n.Position = &graph.Position{X: c.X - size.Width/2, Y: c.Y - size.Height/2}
		n.Size = &size
		n.TargetSide, n.SourceSide = target, source
		out[i] = n
		if dn, ok := g.Node(n.ID); ok {
			ranks[n.ID] = dn.Row
		}
		count++
	}

	elapsed := time.Since(start)
	observability.Pipeline().OnLayoutComplete(ctx, string(dir), count, elapsed)
	e.logger().Debug("layout computed",
		"direction", dir,
		"nodes", len(nodes),
		"placed", count,
		"edges", g.EdgeCount(),
		"dropped_edges", len(edges)-g.EdgeCount(),
		"ranks", g.RowCount(),
		"elapsed", elapsed)

	return Result{
		Direction: dir,
		Nodes:     out,
		Edges:     slices.Clone(edges),
		Ranks:     ranks,
		Width:     width,
		Height:    height,
	}
}

// buildSolver constructs a fresh solver graph. placed[i] reports whether
// nodes[i] made it into the solver; empty and repeated IDs do not. Edges with
// a missing endpoint and self-loops are omitted.
func buildSolver(nodes []graph.Node, edges []graph.Edge) (*dag.DAG, []bool) {
	g := dag.New(nil)
	placed := make([]bool, len(nodes))
	for i, n := range nodes {
		placed[i] = g.AddNode(graph.NodeToDAG(n)) == nil
	}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		_ = g.AddEdge(graph.EdgeToDAG(e))
	}
	return g, placed
}

// place assigns a center point to every node in the solver graph and returns
// the overall diagram size. Along the flow axis each rank is as thick as its
// largest node; across it, each rank is centered against the widest rank.
func (e *Engine) place(g *dag.DAG, orders map[int][]string, dir Direction) (map[string]graph.Position, float64, float64) {
	rows := g.RowIDs()
	if len(rows) == 0 {
		return nil, 0, 0
	}

	fp := e.footprint()
	horizontal := dir.Horizontal()
	// flow and cross extents of a footprint
	extents := func(id string) (flow, cross float64) {
		s := fp(id)
		if horizontal {
			return s.Width, s.Height
		}
		return s.Height, s.Width
	}

	thickness := make([]float64, len(rows))
	span := make([]float64, len(rows))
	maxSpan := 0.0
	for i, r := range rows {
		for j, id := range orders[r] {
			flow, cross := extents(id)
			thickness[i] = max(thickness[i], flow)
			if j > 0 {
				span[i] += e.Config.NodeGap
			}
			span[i] += cross
		}
		maxSpan = max(maxSpan, span[i])
	}

	marginFlow, marginCross := e.Config.MarginY, e.Config.MarginX
	if horizontal {
		marginFlow, marginCross = e.Config.MarginX, e.Config.MarginY
	}

	centers := make(map[string]graph.Position, g.NodeCount())
	flowPos := marginFlow
	for i, r := range rows {
		if i > 0 {
			flowPos += e.Config.RankGap
		}
		flowCenter := flowPos + thickness[i]/2
		crossPos := marginCross + (maxSpan-span[i])/2
		for _, id := range orders[r] {
			_, cross := extents(id)
			crossCenter := crossPos + cross/2
			if horizontal {
				centers[id] = graph.Position{X: flowCenter, Y: crossCenter}
			} else {
				centers[id] = graph.Position{X: crossCenter, Y: flowCenter}
			}
			crossPos += cross + e.Config.NodeGap
		}
		flowPos += thickness[i]
	}

	flowLen := flowPos + marginFlow
	crossLen := maxSpan + 2*marginCross
	if horizontal {
		return centers, flowLen, crossLen
	}
	return centers, crossLen, flowLen
}

func (e *Engine) footprint() Footprint {
	if e.Footprint != nil {
		return e.Footprint
	}
	return FixedFootprint(e.Config.NodeWidth, e.Config.NodeHeight)
}

func (e *Engine) orderer() Orderer {
	if e.Orderer != nil {
		return e.Orderer
	}
	return Barycentric{Passes: e.Config.OrderingPasses}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
