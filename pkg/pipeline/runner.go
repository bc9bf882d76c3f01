package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gpuviz/pkg/cache"
	"github.com/matzehuels/gpuviz/pkg/core/assemble"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeDiagram  = "diagram"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
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
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Compute runs the complete diagram → render pipeline with caching.
func (r *Runner) Compute(ctx context.Context, c *hierarchy.Cluster, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Diagram
	layoutStart := time.Now()
	d, diagramHit, err := r.DiagramWithCacheInfo(ctx, c, opts)
	if err != nil {
		return nil, fmt.Errorf("diagram: %w", err)
	}
	result.Diagram = d
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(d.Nodes)
	result.Stats.EdgeCount = len(d.Edges)
	result.Stats.Diagnostics = len(d.Diagnostics)
	result.CacheInfo.DiagramHit = diagramHit

	if data, err := graph.MarshalDiagram(d); err == nil {
		result.DiagramHash = cache.Hash(data)
	}

	r.Logger.Info("computed diagram",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"diagnostics", result.Stats.Diagnostics,
		"cached", diagramHit,
		"duration", result.Stats.LayoutTime)
	for _, diag := range d.Diagnostics {
		r.Logger.Warn(diag.Message, "code", diag.Code, "node", diag.NodeID)
	}

	// Stage 2: Render
	renderStart := time.Now()
	// JSON is the cached diagram itself; storing it again as an artifact
	// would only duplicate the entry.
	artifactHash := result.DiagramHash
	if opts.WantsOnlyJSON() {
		artifactHash = ""
	}
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, d, artifactHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// DiagramWithCacheInfo computes a diagram with caching and returns cache hit info.
func (r *Runner) DiagramWithCacheInfo(ctx context.Context, c *hierarchy.Cluster, opts Options) (*graph.Diagram, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := hierarchy.Validate(c); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, c.ID, len(opts.Collapsed))
	start := time.Now()

	// Compute cache key
	hierarchyHash, err := cache.HashJSON(c)
	if err != nil {
		hooks.OnLayoutComplete(ctx, c.ID, 0, 0, time.Since(start), err)
		return nil, false, fmt.Errorf("hash hierarchy: %w", err)
	}
	cacheKey := r.Keyer.DiagramKey(hierarchyHash, opts.DiagramKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
			if d, err := graph.UnmarshalDiagram(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeDiagram)
				hooks.OnLayoutComplete(ctx, c.ID, len(d.Nodes), len(d.Edges), time.Since(start), nil)
				return d, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			opts.Logger.Debug("diagram cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeDiagram)
	}

	d := assemble.Build(c, opts.State(), layout.WithConfig(opts.Geometry))

	// Cache the result
	if data, err := graph.MarshalDiagram(d); err == nil {
		if err := r.cacheSet(ctx, cacheKey, data, cache.DiagramTTL); err != nil {
			opts.Logger.Debug("diagram cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeDiagram, len(data))
		}
	}

	hooks.OnLayoutComplete(ctx, c.ID, len(d.Nodes), len(d.Edges), time.Since(start), nil)
	return d, false, nil // Cache miss
}

// Diagram is a convenience wrapper that calls DiagramWithCacheInfo and discards the cache hit info.
func (r *Runner) Diagram(ctx context.Context, c *hierarchy.Cluster, opts Options) (*graph.Diagram, error) {
	d, _, err := r.DiagramWithCacheInfo(ctx, c, opts)
	return d, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// An empty diagramHash disables artifact caching.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d *graph.Diagram, diagramHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	// Try to get all formats from cache
	if diagramHash != "" && !opts.Refresh {
		artifacts := make(map[string][]byte)
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.cacheGet(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
				break
			}
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(ctx, d, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	if diagramHash != "" {
		for format, data := range rendered {
			cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
			if err := r.cacheSet(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
			}
		}
	}

	return rendered, false, nil // Cache miss
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// cacheGet reads key, retrying transient backend failures.
func (r *Runner) cacheGet(ctx context.Context, key string) (data []byte, hit bool, err error) {
	err = cache.RetryWithBackoff(ctx, func() error {
		var getErr error
		data, hit, getErr = r.Cache.Get(ctx, key)
		return getErr
	})
	return data, hit, err
}

// cacheSet writes key, retrying transient backend failures.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
