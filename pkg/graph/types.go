package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/branchview/pkg/dag"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node kinds.
const (
	KindMessage       = "message"
	KindMergedMessage = "merged_message"
)

// Edge kinds.
const (
	EdgeParent = "parent"
	EdgeMerge  = "merge"
)

// Side is the edge of a node's box where connectors attach.
type Side string

// Connector sides.
const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// ErrMissingTimestamp is returned by [ToDAG] for a node whose timestamp is
// unset. An undated node would become the oldest message and hide every other
// message from the timeline.
var ErrMissingTimestamp = errors.New("node has no timestamp")

// =============================================================================
// Graph - Conversation Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for conversation graphs: the
// contract between whatever produces the conversation and the layout and
// timeline engines that consume it.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// =============================================================================
// Node
// =============================================================================

// Position is a point in diagram coordinates. Positions produced by the layout
// engine are the node's top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height in diagram units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a message in the conversation graph.
//
// Position, Size, TargetSide and SourceSide are empty on input and filled in
// by the layout engine. Payload is opaque to both engines.
type Node struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Payload    map[string]any `json:"payload,omitempty"`
	Position   *Position      `json:"position,omitempty"`
	Size       *Size          `json:"size,omitempty"`
	TargetSide Side           `json:"target_side,omitempty"` // where incoming connectors attach
	SourceSide Side           `json:"source_side,omitempty"` // where outgoing connectors attach
}

// IsMerged reports whether the node joins several branches.
func (n *Node) IsMerged() bool { return n.Kind == KindMergedMessage }

// Label returns a short display label: the payload's "label" or "content"
// string if present, otherwise the ID.
func (n *Node) Label() string {
	for _, key := range []string{"label", "content"} {
		if s, ok := n.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	return n.ID
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed link between two messages.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind,omitempty"`
}

// IsMerge reports whether the edge feeds a merged message.
func (e *Edge) IsMerge() bool { return e.Kind == EdgeMerge }

// =============================================================================
// Graph ↔ DAG Conversion
// =============================================================================

// ToDAG converts a Graph into a [dag.DAG] and validates it.
// Unlike the layout engine, which tolerates malformed input, ToDAG is strict:
// it fails on empty or duplicate node IDs, missing timestamps, dangling edges,
// and cycles. Use it at trust boundaries (file import, HTTP requests) before
// accepting a graph.
func ToDAG(g Graph) (*dag.DAG, error) {
	d := dag.New(nil)
	for _, n := range g.Nodes {
		if err := d.AddNode(NodeToDAG(n)); err != nil {
			return nil, fmt.Errorf("add node %q: %w", n.ID, err)
		}
		if n.Timestamp.IsZero() {
			return nil, fmt.Errorf("node %q: %w", n.ID, ErrMissingTimestamp)
		}
	}
	for _, e := range g.Edges {
		if err := d.AddEdge(EdgeToDAG(e)); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.Source, e.Target, err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NodeToDAG converts a wire node into a solver node. The payload map is
// shared, not copied.
func NodeToDAG(n Node) dag.Node {
	kind := dag.NodeKindMessage
	if n.IsMerged() {
		kind = dag.NodeKindMerged
	}
	return dag.Node{
		ID:        n.ID,
		Kind:      kind,
		Timestamp: n.Timestamp,
		Meta:      n.Payload,
	}
}

// EdgeToDAG converts a wire edge into a solver edge.
func EdgeToDAG(e Edge) dag.Edge {
	kind := dag.EdgeKindParent
	if e.IsMerge() {
		kind = dag.EdgeKindMerge
	}
	return dag.Edge{From: e.Source, To: e.Target, Kind: kind}
}

// Timestamps returns the creation time of every node, in node order.
// This is the "all nodes" input of the timeline visibility engine.
func Timestamps(nodes []Node) []time.Time {
	out := make([]time.Time, len(nodes))
	for i, n := range nodes {
		out[i] = n.Timestamp
	}
	return out
}
