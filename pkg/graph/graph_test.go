package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/branchview/pkg/dag"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func diamond() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "A", Kind: KindMessage, Timestamp: t0},
			{ID: "B", Kind: KindMessage, Timestamp: t0.Add(time.Minute)},
			{ID: "C", Kind: KindMessage, Timestamp: t0.Add(2 * time.Minute)},
			{ID: "D", Kind: KindMergedMessage, Timestamp: t0.Add(3 * time.Minute)},
		},
		Edges: []Edge{
			{Source: "A", Target: "B", Kind: EdgeParent},
			{Source: "A", Target: "C", Kind: EdgeParent},
			{Source: "B", Target: "D", Kind: EdgeMerge},
			{Source: "C", Target: "D", Kind: EdgeMerge},
		},
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantErr   bool
		check     func(t *testing.T, g Graph)
	}{
		{
			name: "Valid",
			input: `{
				"nodes": [
					{"id": "q", "timestamp": "2024-05-01T10:00:00Z", "payload": {"content": "hello"}},
					{"id": "a", "timestamp": "2024-05-01T10:00:05Z"}
				],
				"edges": [
					{"source": "q", "target": "a"}
				]
			}`,
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g Graph) {
				if g.Nodes[0].Payload["content"] != "hello" {
					t.Errorf("content = %v, want hello", g.Nodes[0].Payload["content"])
				}
				if !g.Nodes[1].Timestamp.Equal(t0.Add(5 * time.Second)) {
					t.Errorf("timestamp = %v", g.Nodes[1].Timestamp)
				}
			},
		},
		{
			name: "DefaultsKinds",
			input: `{
				"nodes": [{"id": "a"}, {"id": "b", "kind": "merged_message"}],
				"edges": [{"source": "a", "target": "b"}, {"source": "a", "target": "b", "kind": "merge"}]
			}`,
			wantNodes: 2,
			wantEdges: 2,
			check: func(t *testing.T, g Graph) {
				if g.Nodes[0].Kind != KindMessage {
					t.Errorf("node kind = %q, want %q", g.Nodes[0].Kind, KindMessage)
				}
				if !g.Nodes[1].IsMerged() {
					t.Error("node b should be merged")
				}
				if g.Edges[0].Kind != EdgeParent {
					t.Errorf("edge kind = %q, want %q", g.Edges[0].Kind, EdgeParent)
				}
				if !g.Edges[1].IsMerge() {
					t.Error("second edge should be a merge")
				}
			},
		},
		{
			name:      "Empty",
			input:     `{"nodes": [], "edges": []}`,
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name:    "Invalid",
			input:   `{invalid json}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}

			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := WriteGraphFile(diamond(), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Errorf("got %d nodes %d edges, want 4/4", g.NodeCount(), g.EdgeCount())
	}
	if !g.Nodes[3].IsMerged() {
		t.Error("D should stay merged")
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	if _, err := ReadGraphFile("nonexistent.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteGraphOmitsEmptyLayoutFields(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGraph(diamond(), &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	if strings.Contains(buf.String(), "position") {
		t.Error("unpositioned nodes should not serialize a position")
	}
}

func TestToDAG(t *testing.T) {
	t.Run("Diamond", func(t *testing.T) {
		d, err := ToDAG(diamond())
		if err != nil {
			t.Fatalf("ToDAG: %v", err)
		}
		n, _ := d.Node("D")
		if !n.IsMerged() {
			t.Error("D should be merged in the DAG")
		}
		if d.InDegree("D") != 2 {
			t.Errorf("InDegree(D) = %d, want 2", d.InDegree("D"))
		}
	})

	t.Run("Dangling", func(t *testing.T) {
		g := diamond()
		g.Edges = append(g.Edges, Edge{Source: "D", Target: "ghost"})
		if _, err := ToDAG(g); !errors.Is(err, dag.ErrUnknownTargetNode) {
			t.Errorf("ToDAG() = %v, want ErrUnknownTargetNode", err)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		g := diamond()
		g.Edges = append(g.Edges, Edge{Source: "D", Target: "A"})
		if _, err := ToDAG(g); !errors.Is(err, dag.ErrGraphHasCycle) {
			t.Errorf("ToDAG() = %v, want ErrGraphHasCycle", err)
		}
	})

	t.Run("MissingTimestamp", func(t *testing.T) {
		g := diamond()
		g.Nodes = append(g.Nodes, Node{ID: "E"})
		if _, err := ToDAG(g); !errors.Is(err, ErrMissingTimestamp) {
			t.Errorf("ToDAG() = %v, want ErrMissingTimestamp", err)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		g := diamond()
		g.Nodes = append(g.Nodes, Node{ID: "A"})
		if _, err := ToDAG(g); !errors.Is(err, dag.ErrDuplicateNodeID) {
			t.Errorf("ToDAG() = %v, want ErrDuplicateNodeID", err)
		}
	})
}

func TestNodeLabel(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{ID: "x"}, "x"},
		{Node{ID: "x", Payload: map[string]any{"content": "hi"}}, "hi"},
		{Node{ID: "x", Payload: map[string]any{"content": "hi", "label": "L"}}, "L"},
		{Node{ID: "x", Payload: map[string]any{"content": 3}}, "x"},
	}
	for _, tt := range tests {
		if got := tt.node.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestTimestamps(t *testing.T) {
	ts := Timestamps(diamond().Nodes)
	if len(ts) != 4 || !ts[0].Equal(t0) || !ts[3].Equal(t0.Add(3*time.Minute)) {
		t.Errorf("Timestamps() = %v", ts)
	}
}

func TestUnmarshalLayout(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantDir string
		wantErr bool
	}{
		{"Default", `{"nodes": []}`, DirectionTB, false},
		{"LR", `{"direction": "LR"}`, DirectionLR, false},
		{"Unknown", `{"direction": "RL"}`, "", true},
		{"Invalid", `{`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := UnmarshalLayout([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalLayout: %v", err)
			}
			if l.Direction != tt.wantDir {
				t.Errorf("Direction = %q, want %q", l.Direction, tt.wantDir)
			}
		})
	}
}

func TestLayoutFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	in := Layout{
		Direction: DirectionLR,
		Width:     800,
		Height:    600,
		Nodes:     []Node{{ID: "a", Position: &Position{X: 10, Y: 20}, TargetSide: SideLeft, SourceSide: SideRight}},
		Ranks:     map[string]int{"a": 0},
	}
	if err := WriteLayoutFile(in, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}

	raw, _ := os.ReadFile(path)
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("layout file is not JSON: %v", err)
	}

	out, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if out.Direction != DirectionLR || out.Nodes[0].Position.X != 10 || out.Nodes[0].TargetSide != SideLeft {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if got := out.Graph().NodeCount(); got != 1 {
		t.Errorf("Graph().NodeCount() = %d, want 1", got)
	}
}
