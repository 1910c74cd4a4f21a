package nodelink

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/layout"
)

func diamondLayout() graph.Layout {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	nodes := []graph.Node{
		{ID: "q", Timestamp: t0, Payload: map[string]any{"role": "user", "content": "Which option?"}},
		{ID: "a", Timestamp: t0.Add(time.Minute), Payload: map[string]any{"role": "assistant", "content": "A"}},
		{ID: "b", Timestamp: t0.Add(2 * time.Minute), Payload: map[string]any{"role": "assistant", "content": "B"}},
		{ID: "m", Kind: graph.KindMergedMessage, Timestamp: t0.Add(3 * time.Minute)},
	}
	edges := []graph.Edge{
		{Source: "q", Target: "a"},
		{Source: "q", Target: "b"},
		{Source: "a", Target: "m", Kind: graph.EdgeMerge},
		{Source: "b", Target: "m", Kind: graph.EdgeMerge},
		{Source: "m", Target: "ghost"},
	}
	return layout.Layout(nodes, edges, layout.TB).Export()
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(diamondLayout(), Options{})

	for _, want := range []string{
		"digraph G",
		"layout=neato",
		`"q" [label="Which option?"`,
		`"m" [label="m"`,
		`"q" -> "a" [tailport=s, headport=n]`,
		`"a" -> "m" [tailport=s, headport=n, style=dashed]`,
		"peripheries=2",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("ToDOT() should drop edges to unknown nodes")
	}
}

func TestToDOT_PinnedPositions(t *testing.T) {
	l := diamondLayout()
	dot := ToDOT(l, Options{})

	// q is centered over a and b: top-left (220,20), height 840.
	// Center (395, 120) flips to (395, 720).
	if !strings.Contains(dot, `pos="395,720!"`) {
		t.Errorf("q not pinned at its flipped center:\n%s", dot)
	}
	if !strings.Contains(dot, "width=4.861111111111111") {
		t.Errorf("node width not converted to inches:\n%s", dot)
	}
}

func TestToDOT_Visible(t *testing.T) {
	cutoff := time.Date(2025, 3, 1, 9, 1, 30, 0, time.UTC)
	dot := ToDOT(diamondLayout(), Options{
		Visible: func(n graph.Node) bool { return !n.Timestamp.After(cutoff) },
	})

	if !strings.Contains(dot, `"q" -> "a"`) {
		t.Error("edge between visible nodes missing")
	}
	for _, hidden := range []string{`"b" [`, `"m" [`, `"q" -> "b"`, `-> "m"`} {
		if strings.Contains(dot, hidden) {
			t.Errorf("hidden element %q still drawn", hidden)
		}
	}
}

func TestToDOT_Unplaced(t *testing.T) {
	l := graph.Layout{Nodes: []graph.Node{{ID: "loose"}, {ID: ""}}}
	dot := ToDOT(l, Options{})
	if strings.Contains(dot, "pos=") {
		t.Error("unplaced node should not be pinned")
	}
	if !strings.Contains(dot, `"loose"`) {
		t.Error("unplaced node should still be drawn")
	}
}

func TestFmtLabel(t *testing.T) {
	n := graph.Node{
		ID:        "m1",
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload:   map[string]any{"content": "Hello\n  there", "role": "user"},
	}

	if got := fmtLabel(n, 0, false, false); got != "Hello there" {
		t.Errorf("fmtLabel() simple = %q", got)
	}

	detailed := fmtLabel(n, 2, true, true)
	for _, want := range []string{"m1", "Hello there", "rank: 2", "time: 2025-03-01 09:00:00", "role: user"} {
		if !strings.Contains(detailed, want) {
			t.Errorf("fmtLabel() detailed missing %q: %q", want, detailed)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", 60)
	got := truncate(long, 10)
	if got != strings.Repeat("é", 9)+"…" {
		t.Errorf("truncate() = %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Error("short strings should pass through")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
