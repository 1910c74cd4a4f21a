package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/branchview/pkg/graph"
)

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"id": "prompt", "timestamp": "2024-05-01T10:00:00Z"},
			{"id": "reply", "timestamp": "2024-05-01T10:00:03Z", "payload": {"content": "Sure!"}}
		],
		"edges": [
			{"source": "prompt", "target": "reply"}
		]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Reply label:", g.Nodes[1].Label())
	fmt.Println("Edge kind:", g.Edges[0].Kind)
	// Output:
	// Nodes: 2
	// Edges: 1
	// Reply label: Sure!
	// Edge kind: parent
}
