// Package dag provides the directed acyclic graph that the layout engine
// solves over: conversation messages organized into rows (ranks).
//
// # Overview
//
// A branching conversation is a DAG of messages. Replies hang off their
// parent, branches fork from a shared ancestor, and merged messages join two
// or more branches back together. This package stores that structure with a
// row index so layered (Sugiyama-style) drawing can walk it rank by rank.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "q1"})
//	g.AddNode(dag.Node{ID: "a1"})
//	g.AddEdge(dag.Edge{From: "q1", To: "a1"})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.NodesInRow]
// and related methods. Use [DAG.Validate] to reject dangling edges and cycles
// before handing a graph to code that assumes acyclicity.
//
// # Determinism
//
// Every traversal ([DAG.Nodes], [DAG.NodesInRow], [DAG.Sources], [DAG.Sinks])
// follows node insertion order. Layouts built on top of this package are
// therefore reproducible for identical input.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count inversions with a Fenwick
// tree in O(E log V), which is what the row-ordering sweeps use to compare
// candidate orderings.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. The layout engine builds a
// fresh DAG for every call, so no graph is ever shared between goroutines.
//
// [transform]: github.com/matzehuels/branchview/pkg/dag/transform
package dag
