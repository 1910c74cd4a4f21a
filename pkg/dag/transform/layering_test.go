package transform

import (
	"testing"

	"github.com/matzehuels/branchview/pkg/dag"
)

func rowsOf(g *dag.DAG) map[string]int {
	out := make(map[string]int, g.NodeCount())
	for _, n := range g.Nodes() {
		out[n.ID] = n.Row
	}
	return out
}

func TestAssignLayers(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  map[string]int
	}{
		{
			name: "Empty",
			want: map[string]int{},
		},
		{
			name:  "Isolated",
			nodes: []string{"a", "b"},
			want:  map[string]int{"a": 0, "b": 0},
		},
		{
			name:  "Chain",
			nodes: []string{"a", "b", "c"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 2},
		},
		{
			name:  "Diamond",
			nodes: []string{"A", "B", "C", "D"},
			edges: [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
			want:  map[string]int{"A": 0, "B": 1, "C": 1, "D": 2},
		},
		{
			name:  "LongestPathWins",
			nodes: []string{"root", "x", "y", "z", "merge"},
			edges: [][2]string{
				{"root", "x"}, {"x", "y"}, {"y", "z"},
				{"root", "merge"}, {"z", "merge"},
			},
			want: map[string]int{"root": 0, "x": 1, "y": 2, "z": 3, "merge": 4},
		},
		{
			name:  "MultipleRoots",
			nodes: []string{"r1", "r2", "m"},
			edges: [][2]string{{"r1", "m"}, {"r2", "m"}},
			want:  map[string]int{"r1": 0, "r2": 0, "m": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := dag.New(nil)
			for _, id := range tt.nodes {
				if err := g.AddNode(dag.Node{ID: id, Row: 7}); err != nil {
					t.Fatalf("AddNode(%s): %v", id, err)
				}
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
					t.Fatalf("AddEdge(%s→%s): %v", e[0], e[1], err)
				}
			}

			AssignLayers(g)

			got := rowsOf(g)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("row(%s) = %d, want %d", id, got[id], want)
				}
			}
		})
	}
}

func TestAssignLayersRebuildsRowIndex(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddNode(dag.Node{ID: "c"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "a", To: "c"})

	AssignLayers(g)

	if g.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", g.RowCount())
	}
	row1 := dag.NodeIDs(g.NodesInRow(1))
	if len(row1) != 2 || row1[0] != "b" || row1[1] != "c" {
		t.Errorf("NodesInRow(1) = %v, want [b c]", row1)
	}
}
