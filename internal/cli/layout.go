package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/pipeline"
)

// layoutFlags override the [layout] section of the config for one run.
// Zero values keep the configured setting.
type layoutFlags struct {
	direction  string
	nodeWidth  float64
	nodeHeight float64
	passes     int
	noCache    bool
	refresh    bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "flow direction: TB (top to bottom) or LR (left to right)")
	cmd.Flags().Float64Var(&f.nodeWidth, "node-width", 0, "node width (default from config)")
	cmd.Flags().Float64Var(&f.nodeHeight, "node-height", 0, "node height (default from config)")
	cmd.Flags().IntVar(&f.passes, "passes", 0, "crossing-reduction passes (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
}

// options builds pipeline options from the config with flag overrides.
func (c *CLI) options(f layoutFlags) pipeline.Options {
	opts := pipeline.Options{
		Direction: c.cfg.Layout.Direction,
		Layout:    c.cfg.Layout.Config,
		Refresh:   f.refresh,
		Logger:    c.Logger,
	}
	if f.direction != "" {
		opts.Direction = f.direction
	}
	if f.nodeWidth > 0 {
		opts.Layout.NodeWidth = f.nodeWidth
	}
	if f.nodeHeight > 0 {
		opts.Layout.NodeHeight = f.nodeHeight
	}
	if f.passes > 0 {
		opts.Layout.OrderingPasses = f.passes
	}
	return opts
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a conversation graph",
		Long: `Compute node positions for a conversation graph.

Messages are placed in ranks by their longest distance from a root, ordered
within each rank to reduce crossings, and centered. The output layout.json
carries each message's top-left position, size, rank, and connector sides, and
can be drawn with 'render'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)
	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, flags layoutFlags) error {
	g, err := loadGraph(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.options(flags)
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = derivePath(input, ".layout.json")
	}
	if err := graph.WriteLayoutFile(l, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printKeyValue("direction", l.Direction)
	printKeyValue("size", fmt.Sprintf("%.0f × %.0f", l.Width, l.Height))
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}
