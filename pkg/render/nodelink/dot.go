package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/branchview/pkg/graph"
)

// maxLabelRunes truncates message text in plain labels.
const maxLabelRunes = 48

// Card size assumed for nodes without a recorded size.
const (
	defaultWidth  = 350.0
	defaultHeight = 200.0
)

// pointsPerInch converts diagram units (points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the rank, timestamp and payload fields to each label.
	Detailed bool

	// Visible reports whether a message is drawn. Nil draws every message.
	Visible func(graph.Node) bool
}

func (o Options) visible(n graph.Node) bool {
	return o.Visible == nil || o.Visible(n)
}

// ToDOT converts a layout to Graphviz DOT. Messages with a position are
// pinned at their center; messages without one are left for neato to place.
// Edges whose endpoints are missing or hidden are omitted.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [arrowsize=0.8];\n")
	buf.WriteString("\n")

	shown := make(map[string]graph.Node, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" || !opts.visible(n) {
			continue
		}
		if _, dup := shown[n.ID]; dup {
			continue
		}
		shown[n.ID] = n
		rank, hasRank := l.Ranks[n.ID]
		label := fmtLabel(n, rank, hasRank, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, label, l.Height), ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		src, okS := shown[e.Source]
		dst, okD := shown[e.Target]
		if !okS || !okD {
			continue
		}
		attrs := edgeAttrs(e, src, dst)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, rank int, hasRank, detailed bool) string {
	text := truncate(n.Label(), maxLabelRunes)
	if !detailed {
		return text
	}

	var parts []string
	if text != n.ID {
		parts = append(parts, n.ID)
	}
	parts = append(parts, text)
	if hasRank {
		parts = append(parts, fmt.Sprintf("rank: %d", rank))
	}
	if !n.Timestamp.IsZero() {
		parts = append(parts, "time: "+n.Timestamp.UTC().Format(time.DateTime))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Payload)) {
		if k == "content" || k == "label" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Payload[k]))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, label string, height float64) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Position != nil {
		w, h := nodeSize(n)
		cx := n.Position.X + w/2
		// Graphviz y grows upward.
		cy := height - (n.Position.Y + h/2)
		attrs = append(attrs,
			fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(cx), fmtFloat(cy)),
			fmt.Sprintf("width=%s", fmtFloat(w/pointsPerInch)),
			fmt.Sprintf("height=%s", fmtFloat(h/pointsPerInch)),
		)
	}
	if n.IsMerged() {
		attrs = append(attrs, "peripheries=2")
	}
	if role, _ := n.Payload["role"].(string); role == "user" {
		attrs = append(attrs, "fillcolor=\"#eef3ff\"")
	}
	return attrs
}

func edgeAttrs(e graph.Edge, src, dst graph.Node) []string {
	var attrs []string
	if p := port(src.SourceSide); p != "" {
		attrs = append(attrs, fmt.Sprintf("tailport=%s", p))
	}
	if p := port(dst.TargetSide); p != "" {
		attrs = append(attrs, fmt.Sprintf("headport=%s", p))
	}
	if e.IsMerge() {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// port maps an anchor side to a Graphviz compass point.
func port(s graph.Side) string {
	switch s {
	case graph.SideTop:
		return "n"
	case graph.SideBottom:
		return "s"
	case graph.SideLeft:
		return "w"
	case graph.SideRight:
		return "e"
	}
	return ""
}

// nodeSize reports the footprint a layout gave a message, falling back to
// the default card size for layouts written without sizes.
func nodeSize(n graph.Node) (float64, float64) {
	if n.Size != nil && n.Size.Width > 0 && n.Size.Height > 0 {
		return n.Size.Width, n.Size.Height
	}
	return defaultWidth, defaultHeight
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
