package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and visibility API over HTTP",
		Long: `Serve the layout and visibility API over HTTP.

Endpoints:
  GET  /health
  POST /api/v1/layout      graph → positioned layout
  POST /api/v1/visibility  graph + position → visible messages
  POST /api/v1/render      graph → svg, png, pdf, dot or json

Layouts are cached in Redis when [cache] redis_url is set, otherwise on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg := c.cfg
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printInfo("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))
	return server.New(cfg, runner, c.Logger).ListenAndServe(ctx)
}
