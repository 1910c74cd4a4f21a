package layout

import (
	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
)

// Default layout constants. The node footprint approximates the bounding box
// of a rendered message card.
const (
	DefaultNodeWidth      = 350.0
	DefaultNodeHeight     = 200.0
	DefaultNodeGap        = 50.0
	DefaultRankGap        = 100.0
	DefaultMargin         = 20.0
	DefaultOrderingPasses = 4
)

// Config holds the numeric constants the engine lays out with.
type Config struct {
	NodeWidth      float64 `toml:"node_width" json:"node_width"`
	NodeHeight     float64 `toml:"node_height" json:"node_height"`
	NodeGap        float64 `toml:"node_gap" json:"node_gap"`         // between nodes in a rank
	RankGap        float64 `toml:"rank_gap" json:"rank_gap"`         // between consecutive ranks
	MarginX        float64 `toml:"margin_x" json:"margin_x"`
	MarginY        float64 `toml:"margin_y" json:"margin_y"`
	OrderingPasses int     `toml:"ordering_passes" json:"ordering_passes"` // 0 keeps input order
}

// DefaultConfig returns the standard layout constants.
func DefaultConfig() Config {
	return Config{
		NodeWidth:      DefaultNodeWidth,
		NodeHeight:     DefaultNodeHeight,
		NodeGap:        DefaultNodeGap,
		RankGap:        DefaultRankGap,
		MarginX:        DefaultMargin,
		MarginY:        DefaultMargin,
		OrderingPasses: DefaultOrderingPasses,
	}
}

// Validate rejects configurations that cannot produce a readable diagram.
func (c Config) Validate() error {
	if c.NodeWidth <= 0 || c.NodeHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "node size must be positive, got %gx%g", c.NodeWidth, c.NodeHeight)
	}
	if c.NodeGap < 0 || c.RankGap < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gaps must not be negative")
	}
	if c.MarginX < 0 || c.MarginY < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "margins must not be negative")
	}
	if c.OrderingPasses < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ordering passes must not be negative")
	}
	return nil
}

// Size is a width and height in diagram units.
type Size = graph.Size

// Footprint returns the box a node occupies, looked up by ID.
type Footprint func(id string) Size

// FixedFootprint returns a Footprint that gives every node the same size.
func FixedFootprint(width, height float64) Footprint {
	s := Size{Width: width, Height: height}
	return func(string) Size { return s }
}
