package dag

import (
	"errors"
	"testing"
	"time"
)

func TestAddNode(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("Node(a) not found")
	}
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})

	if err := g.AddEdge(Edge{From: "missing", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(missing→b) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "missing"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a→missing) = %v, want ErrUnknownTargetNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "b", Kind: EdgeKindMerge}); err != nil {
		t.Fatalf("AddEdge(a→b) = %v", err)
	}

	if g.InDegree("b") != 1 || g.OutDegree("a") != 1 {
		t.Errorf("degrees = in %d out %d, want 1/1", g.InDegree("b"), g.OutDegree("a"))
	}
	if !g.Edges()[0].IsMerge() {
		t.Error("edge kind should be preserved")
	}
}

func TestNodesKeepInsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"z", "m", "a", "q"}
	for _, id := range ids {
		g.AddNode(Node{ID: id})
	}

	got := NodeIDs(g.Nodes())
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("Nodes() = %v, want %v", got, ids)
		}
	}

	g.SetRows(map[string]int{"m": 1, "q": 1})
	row1 := NodeIDs(g.NodesInRow(1))
	if len(row1) != 2 || row1[0] != "m" || row1[1] != "q" {
		t.Errorf("NodesInRow(1) = %v, want [m q]", row1)
	}
	if g.MaxRow() != 1 {
		t.Errorf("MaxRow() = %d, want 1", g.MaxRow())
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := New(nil)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.AddNode(Node{ID: "root", Timestamp: ts})
	g.AddNode(Node{ID: "left", Timestamp: ts.Add(time.Minute)})
	g.AddNode(Node{ID: "right", Timestamp: ts.Add(2 * time.Minute)})
	g.AddEdge(Edge{From: "root", To: "left"})
	g.AddEdge(Edge{From: "root", To: "right"})

	if got := NodeIDs(g.Sources()); len(got) != 1 || got[0] != "root" {
		t.Errorf("Sources() = %v, want [root]", got)
	}
	if got := NodeIDs(g.Sinks()); len(got) != 2 || got[0] != "left" || got[1] != "right" {
		t.Errorf("Sinks() = %v, want [left right]", got)
	}
}

func TestValidate(t *testing.T) {
	t.Run("Acyclic", func(t *testing.T) {
		g := New(nil)
		g.AddNode(Node{ID: "a"})
		g.AddNode(Node{ID: "b"})
		g.AddEdge(Edge{From: "a", To: "b"})
		if err := g.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		g := New(nil)
		g.AddNode(Node{ID: "a"})
		g.AddNode(Node{ID: "b"})
		g.AddNode(Node{ID: "c"})
		g.AddEdge(Edge{From: "a", To: "b"})
		g.AddEdge(Edge{From: "b", To: "c"})
		g.AddEdge(Edge{From: "c", To: "a"})
		if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
			t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
		}
	})

	t.Run("SelfLoop", func(t *testing.T) {
		g := New(nil)
		g.AddNode(Node{ID: "a"})
		g.AddEdge(Edge{From: "a", To: "a"})
		if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
			t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
		}
	})
}

func TestCountLayerCrossings(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "c", "x", "y", "z"} {
		g.AddNode(Node{ID: id})
	}
	// a→z, b→y, c→x: every pair crosses
	g.AddEdge(Edge{From: "a", To: "z"})
	g.AddEdge(Edge{From: "b", To: "y"})
	g.AddEdge(Edge{From: "c", To: "x"})

	if got := CountLayerCrossings(g, []string{"a", "b", "c"}, []string{"x", "y", "z"}); got != 3 {
		t.Errorf("CountLayerCrossings() = %d, want 3", got)
	}
	if got := CountLayerCrossings(g, []string{"a", "b", "c"}, []string{"z", "y", "x"}); got != 0 {
		t.Errorf("CountLayerCrossings(reversed) = %d, want 0", got)
	}
	if got := CountLayerCrossings(g, nil, []string{"x"}); got != 0 {
		t.Errorf("CountLayerCrossings(empty) = %d, want 0", got)
	}
}

func TestCountCrossingsSparseRows(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "x", "y"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = g.AddEdge(Edge{From: "a", To: "y"})
	_ = g.AddEdge(Edge{From: "b", To: "x"})

	tests := []struct {
		name   string
		orders map[int][]string
		want   int
	}{
		{"Contiguous", map[int][]string{0: {"a", "b"}, 1: {"x", "y"}}, 1},
		{"Gap", map[int][]string{0: {"a", "b"}, 2: {"x", "y"}}, 1},
		{"GapUncrossed", map[int][]string{3: {"a", "b"}, 7: {"y", "x"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountCrossings(g, tt.orders); got != tt.want {
				t.Errorf("CountCrossings() = %d, want %d", got, tt.want)
			}
		})
	}
}
