// Package pipeline provides the layout → render pipeline shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: place every message with the layered layout engine
//  2. Render: produce artifacts (JSON, DOT, SVG, PNG, PDF), optionally as a
//     timeline snapshot that hides messages after a scrub position
//
// Both stages are cached by content hash, so rerunning on an unchanged graph
// is cheap. Each stage can be run independently or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, g, pipeline.Options{
//	    Direction: "LR",
//	    Formats:   []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/layout"
	"github.com/matzehuels/branchview/pkg/timeline"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatSVG}

// Cache lifetimes per stage.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Direction string        `json:"direction,omitempty"`
	Layout    layout.Config `json:"layout"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Position is the timeline scrub position; nil or >= 1 shows everything.
	Position *float64 `json:"position,omitempty"`
	// Now pins the reference time of the timeline cutoff; zero means the
	// wall clock at render time.
	Now time.Time `json:"now,omitempty"`

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults validates options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	o.Direction = string(dir)

	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Position != nil {
		if err := errors.ValidatePosition(*o.Position); err != nil {
			return err
		}
		p := timeline.Clamp(*o.Position)
		o.Position = &p
	}

	o.validated = true
	return nil
}

// ValidateFormats rejects unknown or repeated formats.
func ValidateFormats(formats []string) error {
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want json, dot, svg, png or pdf)", f)
		}
		if seen[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "format %q requested twice", f)
		}
		seen[f] = true
	}
	return nil
}

// Dir returns the parsed flow direction.
func (o Options) Dir() layout.Direction {
	return layout.Direction(o.Direction).Normalize()
}

// Snapshot reports whether the options hide part of the timeline.
func (o Options) Snapshot() bool {
	return o.Position != nil && *o.Position < 1
}

// Window returns the timeline window for the given layout. The reference time
// is Options.Now, or now if unset.
func (o Options) Window(l graph.Layout, now time.Time) timeline.Window {
	pos := 1.0
	if o.Position != nil {
		pos = *o.Position
	}
	if !o.Now.IsZero() {
		now = o.Now
	}
	return timeline.NewWindow(graph.Timestamps(l.Nodes), pos, now)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Layout is the computed layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	VisibleCount int
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
