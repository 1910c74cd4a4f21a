package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/branchview/pkg/cache"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/layout"
	"github.com/matzehuels/branchview/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyDefaults(&opts)

	result := &Result{
		Stats: Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
	}

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"direction", l.Direction,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	w := opts.Window(l, opts.Now)
	for _, n := range l.Nodes {
		if w.Contains(n.Timestamp) {
			result.Stats.VisibleCount++
		}
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"visible", result.Stats.VisibleCount,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes a layout with caching and reports whether it
// came from the cache. Options.Refresh skips the lookup but still stores the
// fresh result.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyDefaults(&opts)

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	key := r.Keyer.LayoutKey(cache.Hash(graphData), cache.LayoutKeyOpts{
		Direction: opts.Direction,
		Config:    opts.Layout,
	})

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key, keyTypeLayout); ok {
			if l, err := graph.UnmarshalLayout(cached); err == nil {
				return l, true, nil
			}
			// Unreadable entries fall through and are overwritten.
		}
	}

	engine := layout.New(opts.Layout)
	engine.Logger = opts.Logger
	l := engine.LayoutContext(ctx, g.Nodes, g.Edges, opts.Dir()).Export()

	if data, err := graph.MarshalLayout(l); err == nil {
		r.store(ctx, key, keyTypeLayout, data, TTLLayout)
	}
	return l, false, nil
}

// Layout is a convenience wrapper around LayoutWithCacheInfo.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo renders artifacts with caching and reports whether all
// of them came from the cache. Snapshots are keyed by their cutoff, so two
// renders that show the same messages share entries.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyDefaults(&opts)

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	keyOpts := r.artifactKeyOpts(l, opts)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			keyOpts.Format = format
			data, ok := r.lookup(ctx, r.Keyer.ArtifactKey(layoutHash, keyOpts), keyTypeArtifact)
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		keyOpts.Format = format
		r.store(ctx, r.Keyer.ArtifactKey(layoutHash, keyOpts), keyTypeArtifact, data, TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper around RenderWithCacheInfo.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) artifactKeyOpts(l graph.Layout, opts Options) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Position: 1, Detailed: opts.Detailed}
	if !opts.Snapshot() {
		return k
	}
	k.Position = *opts.Position
	if cutoff, ok := opts.Window(l, opts.Now).Cutoff(); ok {
		k.Cutoff = cutoff.UTC().Format(time.RFC3339Nano)
	}
	return k
}

func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !hit {
		if !cache.Disabled(r.Cache) {
			observability.Cache().OnCacheMiss(ctx, keyType)
		}
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if cache.Disabled(r.Cache) {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyDefaults fills in the runner's logger and pins the timeline reference
// time, so cache keys and rendered output agree on the cutoff.
func (r *Runner) applyDefaults(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
}
