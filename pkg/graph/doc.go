// Package graph provides serialization types for conversation graphs and
// their layouts.
//
// This package defines the wire format shared by the CLI, the HTTP server and
// any external renderer: the graph a collaborator supplies, and the positioned
// diagram the layout engine returns.
//
// # Core Types
//
//   - [Graph]: nodes (messages) and edges (parent and merge links)
//   - [Node], [Edge]: message and link records
//   - [Layout]: a positioned diagram (top-left node positions, connector sides, ranks)
//
// # Graph Serialization
//
//	{
//	  "nodes": [
//	    {"id": "q", "timestamp": "2024-05-01T10:00:00Z", "payload": {"content": "hi"}},
//	    {"id": "a", "timestamp": "2024-05-01T10:00:05Z"}
//	  ],
//	  "edges": [{"source": "q", "target": "a"}]
//	}
//
// Node kind defaults to "message" and edge kind to "parent" when omitted.
//
//	g, _ := graph.ReadGraphFile("conversation.json")
//	graph.WriteGraphFile(g, "copy.json")
//
// # Validation
//
// Decoding never rejects structurally odd graphs; the layout engine degrades
// gracefully on dangling edges. [ToDAG] is the strict path: it rejects empty
// or duplicate IDs, undated nodes, dangling edges and cycles.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
