package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
)

const sample = `{"id":"q","created_at":"2025-03-01T09:00:00Z","role":"user","content":"Compare A and B"}
{"id":"a","parent":"q","created_at":"2025-03-01T09:00:05Z","role":"assistant","content":"Option A"}
{"id":"b","parent":"q","created_at":"2025-03-01T09:01:00Z","role":"assistant","content":"Option B","model":"small"}

{"id":"m","parents":["a","b"],"created_at":"2025-03-01T09:05:00Z","role":"assistant","content":"Both"}
`

func TestRead(t *testing.T) {
	g, stats, err := Read(strings.NewReader(sample), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if stats.Lines != 4 || stats.Messages != 4 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 4 {
		t.Fatalf("got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	m := g.Nodes[3]
	if !m.IsMerged() {
		t.Errorf("m.Kind = %q, want merged", m.Kind)
	}
	for _, e := range g.Edges[2:] {
		if e.Target != "m" || !e.IsMerge() {
			t.Errorf("edge %+v should be a merge into m", e)
		}
	}
	if g.Edges[0] != (graph.Edge{ID: "q->a", Source: "q", Target: "a", Kind: graph.EdgeParent}) {
		t.Errorf("first edge = %+v", g.Edges[0])
	}
	if g.Nodes[2].Payload["model"] != "small" || g.Nodes[0].Payload["role"] != "user" {
		t.Errorf("payloads = %+v / %+v", g.Nodes[2].Payload, g.Nodes[0].Payload)
	}

	if _, err := graph.ToDAG(g); err != nil {
		t.Errorf("imported graph should be a valid DAG: %v", err)
	}
}

func TestReadLenient(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		`{"created_at":"2025-03-01T09:00:00Z","content":"no id"}`,
		`{"id":"x","created_at":"2025-03-01T09:00:01Z"}`,
		`{"id":"x","created_at":"2025-03-01T09:00:02Z"}`,
		`{"id":"bad\u0000id","created_at":"2025-03-01T09:00:03Z"}`,
		`{"id":"y","parents":["x","ghost","x"]}`,
		`{"id":"z","parent":"z","created_at":"2025-03-01T09:00:09Z"}`,
	}, "\n")

	ids := 0
	g, stats, err := Read(strings.NewReader(input), Options{
		NewID: func() string { ids++; return "gen-1" },
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	want := Stats{Lines: 7, Messages: 4, Skipped: 3, GeneratedIDs: 1, Undated: 1, DroppedParents: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if ids != 1 || g.Nodes[0].ID != "gen-1" {
		t.Errorf("generated id not used: %+v", g.Nodes[0])
	}

	y := g.Nodes[2]
	if y.ID != "y" || !y.Timestamp.Equal(time.Date(2025, 3, 1, 9, 0, 1, 0, time.UTC)) {
		t.Errorf("y = %+v, want timestamp inherited from x", y)
	}
	if y.IsMerged() {
		t.Error("y has one known parent and should be a plain message")
	}
	if len(g.Edges) != 1 || g.Edges[0].Source != "x" {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestReadUndatedFirstLine(t *testing.T) {
	_, stats, _ := Read(strings.NewReader(`{"id":"a"}`), Options{})
	if stats.Skipped != 1 || stats.Messages != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReadGeneratesUUIDs(t *testing.T) {
	g, _, _ := Read(strings.NewReader(`{"created_at":"2025-03-01T09:00:00Z"}`), Options{})
	if len(g.Nodes) != 1 || len(g.Nodes[0].ID) != 36 {
		t.Errorf("expected a UUID id, got %+v", g.Nodes)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	g, _, err := ReadFile(path, Options{})
	if err != nil || len(g.Nodes) != 4 {
		t.Fatalf("ReadFile = %d nodes, %v", len(g.Nodes), err)
	}

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"), Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestReadExampleTranscript(t *testing.T) {
	g, stats, err := ReadFile(filepath.Join("..", "..", "examples", "branching.jsonl"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Messages != 9 || stats.Skipped != 0 || stats.DroppedParents != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(g.Edges) != 9 {
		t.Errorf("edges = %d, want 9", len(g.Edges))
	}
	if _, err := graph.ToDAG(g); err != nil {
		t.Errorf("example transcript is not a valid DAG: %v", err)
	}
	for _, n := range g.Nodes {
		if n.ID == "m1" && !n.IsMerged() {
			t.Error("m1 should be a merged message")
		}
	}
}

func TestReadDropsForwardParents(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"a","parent":"b","created_at":"2025-03-01T09:00:00Z"}`,
		`{"id":"b","parent":"a","created_at":"2025-03-01T09:00:05Z"}`,
		`{"id":"c","parents":["b","d"],"created_at":"2025-03-01T09:00:09Z"}`,
		`{"id":"d","parent":"c","created_at":"2025-03-01T09:00:12Z"}`,
	}, "\n")

	g, stats, err := Read(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Messages != 4 || stats.DroppedParents != 2 {
		t.Errorf("stats = %+v, want 4 messages and 2 dropped parents", stats)
	}
	want := []string{"a->b", "b->c", "c->d"}
	if len(g.Edges) != len(want) {
		t.Fatalf("edges = %+v, want %v", g.Edges, want)
	}
	for i, e := range g.Edges {
		if e.ID != want[i] {
			t.Errorf("edge %d = %s, want %s", i, e.ID, want[i])
		}
	}
	if _, err := graph.ToDAG(g); err != nil {
		t.Errorf("imported graph should be acyclic: %v", err)
	}
}
