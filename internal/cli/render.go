package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	formats  string
	at       float64 // timeline position; 1 shows everything
	now      string  // RFC 3339 reference time for --at
	detailed bool
	layout   layoutFlags
}

// renderCommand creates the render command for drawing diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{at: 1}

	cmd := &cobra.Command{
		Use:   "render [graph.json | layout.json]",
		Short: "Draw a conversation as SVG, PNG, PDF, DOT or JSON",
		Long: `Draw a conversation as SVG, PNG, PDF, DOT or JSON.

The input may be a graph (laid out on the fly) or a layout produced by
'layout'. With --at below 1 the output is a timeline snapshot: only messages
created before the cutoff are drawn, where the cutoff lies that fraction of the
way from the oldest message to now (or --now).

PDF output requires rsvg-convert on PATH.`,
		Example: `  branchview render chat.graph.json
  branchview render chat.layout.json -f svg,png -o out/chat
  branchview render chat.graph.json --at 0.5 --now 2025-03-01T12:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.at, "at", opts.at, "timeline position in [0, 1]; below 1 hides later messages")
	cmd.Flags().StringVar(&opts.now, "now", "", "reference time for --at (RFC 3339, default: current time)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label messages with ID, rank and timestamp")
	opts.layout.register(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, ro renderOpts) error {
	logger := loggerFromContext(ctx)

	g, lay, err := loadInput(input)
	if err != nil {
		return err
	}

	opts := c.options(ro.layout)
	opts.Formats = parseFormats(ro.formats)
	opts.Detailed = ro.detailed
	at := ro.at
	opts.Position = &at
	if ro.now != "" {
		now, err := time.Parse(time.RFC3339, ro.now)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --now %q (want RFC 3339)", ro.now)
		}
		opts.Now = now
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, ro.layout.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		cached    bool
	)
	if lay != nil {
		logger.Debug("input is a layout; skipping layout stage", "path", input)
		artifacts, cached, err = runner.RenderWithCacheInfo(ctx, *lay, opts)
	} else {
		var res *pipeline.Result
		res, err = runner.Execute(ctx, g, opts)
		if err == nil {
			artifacts, cached = res.Artifacts, res.CacheInfo.RenderHit
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifacts, opts.Formats, input, ro.output)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(g.NodeCount(), g.EdgeCount(), cached)
	if opts.Snapshot() {
		printDetail("timeline snapshot at %d%%", int(*opts.Position*100+0.5))
	}
	return nil
}

// writeArtifacts writes one file per format and returns the paths in format
// order. A single format goes to output verbatim when given.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		path := outputPath(input, output, format, len(formats) == 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath derives the file for one format. Without an explicit output the
// input's base name is used; a known format extension on output is replaced.
func outputPath(input, output, format string, single bool) string {
	if output == "" {
		return derivePath(input, "."+format)
	}
	if single {
		return output
	}
	if ext := filepath.Ext(output); pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}
