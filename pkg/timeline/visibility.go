package timeline

import (
	"math"
	"time"

	"github.com/matzehuels/branchview/pkg/graph"
)

// epsilon absorbs float drift when accumulated steps approach 1.
const epsilon = 1e-9

// Clamp limits a scrub position to [0, 1]. NaN clamps to 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Window is the visible span of history for one position and reference time.
// The zero value shows nothing.
type Window struct {
	all    bool
	cutoff time.Time
	valid  bool
}

// NewWindow computes the window for the given timestamps. A position of 1 or
// more shows everything. Otherwise the cutoff lies between the oldest
// timestamp and now; a now earlier than the oldest timestamp is treated as
// the oldest timestamp. With no timestamps and position below 1 nothing is
// visible.
func NewWindow(all []time.Time, position float64, now time.Time) Window {
	if position >= 1 {
		return Window{all: true, valid: true}
	}
	if len(all) == 0 {
		return Window{}
	}

	oldest := all[0]
	for _, ts := range all[1:] {
		if ts.Before(oldest) {
			oldest = ts
		}
	}
	if now.Before(oldest) {
		now = oldest
	}

	span := float64(now.Sub(oldest))
	return Window{
		cutoff: oldest.Add(time.Duration(span * Clamp(position))),
		valid:  true,
	}
}

// Contains reports whether a message created at ts is visible.
func (w Window) Contains(ts time.Time) bool {
	if w.all {
		return true
	}
	return w.valid && !ts.After(w.cutoff)
}

// ContainsEdge reports whether an edge is visible: both endpoints must be.
func (w Window) ContainsEdge(src, dst time.Time) bool {
	return w.Contains(src) && w.Contains(dst)
}

// Cutoff returns the cutoff timestamp. ok is false when everything is visible
// or nothing can be.
func (w Window) Cutoff() (cutoff time.Time, ok bool) {
	if w.all || !w.valid {
		return time.Time{}, false
	}
	return w.cutoff, true
}

// Cutoff returns the cutoff timestamp for position against a pinned now.
// ok is false at position 1 (no cutoff) or when all is empty.
func Cutoff(all []time.Time, position float64, now time.Time) (time.Time, bool) {
	return NewWindow(all, position, now).Cutoff()
}

// IsVisibleAt reports whether a message created at ts is visible at position,
// with "now" pinned.
func IsVisibleAt(ts time.Time, all []time.Time, position float64, now time.Time) bool {
	return NewWindow(all, position, now).Contains(ts)
}

// EdgeVisibleAt reports whether an edge between messages created at src and
// dst is visible at position, with "now" pinned.
func EdgeVisibleAt(src, dst time.Time, all []time.Time, position float64, now time.Time) bool {
	return NewWindow(all, position, now).ContainsEdge(src, dst)
}

// Filter returns the visible messages and the edges between them, in input
// order. Edges with an endpoint missing from nodes are dropped.
func Filter(nodes []graph.Node, edges []graph.Edge, w Window) ([]graph.Node, []graph.Edge) {
	visible := make(map[string]bool, len(nodes))
	var outNodes []graph.Node
	for _, n := range nodes {
		if w.Contains(n.Timestamp) {
			visible[n.ID] = true
			outNodes = append(outNodes, n)
		}
	}

	var outEdges []graph.Edge
	for _, e := range edges {
		if visible[e.Source] && visible[e.Target] {
			outEdges = append(outEdges, e)
		}
	}
	return outNodes, outEdges
}
