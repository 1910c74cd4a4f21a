package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/observability"
	"github.com/matzehuels/branchview/pkg/render"
	"github.com/matzehuels/branchview/pkg/render/nodelink"
	"github.com/matzehuels/branchview/pkg/timeline"
)

// Render generates the requested formats from a layout. When the options
// select a timeline snapshot, messages after the cutoff are left out of every
// format. Formats are rendered concurrently.
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	w := opts.Window(l, time.Now())
	visible := l
	dotOpts := nodelink.Options{Detailed: opts.Detailed}
	if opts.Snapshot() {
		visible.Nodes, visible.Edges = timeline.Filter(l.Nodes, l.Edges, w)
		dotOpts.Visible = func(n graph.Node) bool { return w.Contains(n.Timestamp) }
	}
	dot := nodelink.ToDOT(l, dotOpts)

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))
	g, gctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderFormat(gctx, format, visible, dot)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, l graph.Layout, dot string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return graph.MarshalLayout(l)
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot)
	case FormatPDF:
		svg, err := nodelink.RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}
