// Package cli implements the branchview command-line interface.
//
// # Commands
//
//   - import: convert a JSONL transcript into graph.json
//   - layout: compute layout.json from graph.json
//   - render: draw a graph or layout as SVG, PNG, PDF, DOT or JSON, optionally
//     as a timeline snapshot (--at)
//   - replay: play a conversation's history back in the terminal
//   - serve: expose the engines over HTTP
//   - cache, config, completion: housekeeping
//
// Settings come from a TOML file (--config, or the XDG default location);
// flags override individual values.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/pkg/buildinfo"
	"github.com/matzehuels/branchview/pkg/cache"
	"github.com/matzehuels/branchview/pkg/config"
	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "branchview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and built-in settings.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded settings.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Branchview lays out branching conversations and replays their history",
		Long: `Branchview turns a branching conversation (messages that fork into
alternatives and merge back together) into a layered diagram, and replays how
the conversation grew over time.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.Logger.Debug("loaded config", "path", c.configPath)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/branchview/config.toml)")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, appName+":"), c.Logger), nil
}

// newCache selects Redis when a URL is configured and the file cache
// otherwise. An unusable cache directory disables caching rather than failing.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if c.cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisURL)
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/branchview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// derivePath replaces the input's extension (and a ".layout" infix) with
// suffix: "chat.graph.json" + ".layout.json" → "chat.graph.layout.json".
func derivePath(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".layout")
	return base + suffix
}

// =============================================================================
// Input Loading
// =============================================================================

// loadGraph reads graph.json and rejects graphs the layout cannot honor
// faithfully: duplicate or empty IDs, dangling edges, cycles.
func loadGraph(path string) (graph.Graph, error) {
	if err := checkExists(path); err != nil {
		return graph.Graph{}, err
	}
	g, err := graph.ReadGraphFile(path)
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "read %s", path)
	}
	if _, err := graph.ToDAG(g); err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s", path)
	}
	return g, nil
}

// loadInput accepts either a graph or a layout file. A file whose nodes all
// carry positions is treated as a finished layout.
func loadInput(path string) (g graph.Graph, l *graph.Layout, err error) {
	if err := checkExists(path); err != nil {
		return graph.Graph{}, nil, err
	}
	if lay, err := graph.ReadLayoutFile(path); err == nil && isLayout(lay) {
		return lay.Graph(), &lay, nil
	}
	g, err = loadGraph(path)
	return g, nil, err
}

func isLayout(l graph.Layout) bool {
	if len(l.Nodes) == 0 {
		return false
	}
	for _, n := range l.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}

func checkExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
