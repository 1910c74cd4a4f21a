package layout

import (
	"strings"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
)

// Direction is the primary flow axis of the diagram.
type Direction string

const (
	// TB flows top to bottom. It is the default.
	TB Direction = graph.DirectionTB
	// LR flows left to right.
	LR Direction = graph.DirectionLR
)

// ParseDirection converts user input ("tb", "LR", "") to a Direction.
// The empty string selects TB.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(TB):
		return TB, nil
	case string(LR):
		return LR, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want TB or LR)", s)
}

// Normalize maps anything other than LR to TB.
func (d Direction) Normalize() Direction {
	if d == LR {
		return LR
	}
	return TB
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool { return d == LR }

// Anchors returns the connector sides for every node laid out in this
// direction: where incoming connectors attach and where outgoing ones leave.
func (d Direction) Anchors() (target, source graph.Side) {
	if d == LR {
		return graph.SideLeft, graph.SideRight
	}
	return graph.SideTop, graph.SideBottom
}

// String implements fmt.Stringer.
func (d Direction) String() string { return string(d.Normalize()) }
