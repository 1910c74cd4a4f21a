package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Flow directions recognised in serialized layouts.
const (
	DirectionTB = "TB"
	DirectionLR = "LR"
)

// =============================================================================
// Layout - Positioned Diagram
// =============================================================================

// Layout is the serialization format for a computed diagram: every node
// annotated with its top-left position and connector sides, edges echoed
// unchanged, and the rank assigned to each node.
//
// Layouts are derived data; they are written to disk or returned over HTTP for
// a renderer to draw, never treated as the source of truth for the graph.
type Layout struct {
	Direction string         `json:"direction"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Nodes     []Node         `json:"nodes"`
	Edges     []Edge         `json:"edges"`
	Ranks     map[string]int `json:"ranks,omitempty"`
}

// Graph returns the layout's nodes and edges as a Graph.
func (l Layout) Graph() Graph {
	return Graph{Nodes: l.Nodes, Edges: l.Edges}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// An empty direction defaults to top-to-bottom; any other unknown value is an
// error.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	switch l.Direction {
	case "":
		l.Direction = DirectionTB
	case DirectionTB, DirectionLR:
	default:
		return Layout{}, fmt.Errorf("unknown layout direction %q", l.Direction)
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
