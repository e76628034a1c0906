package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/K2/matrix.svg/pkg/cache"
	"github.com/K2/matrix.svg/pkg/observability"
	"github.com/K2/matrix.svg/pkg/rain"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
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

// Execute runs the complete build → encode pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		DocumentID: rain.DocumentID(opts.Config).String(),
	}

	canonical := opts.Config.Canonical()
	cacheKey := r.Keyer.DocumentKey(canonical)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "doc")
			result.Document = data
			result.CacheInfo.DocumentHit = true
			result.Stats.NiceLevel, _ = rain.EffectsFor(opts.Config.NiceLevel)
			opts.Logger.Info("document served from cache",
				"key", cacheKey,
				"bytes", len(data))
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "doc")
	}

	// Stage 1: Build
	buildStart := time.Now()
	observability.Build().OnBuildStart(ctx, opts.Config.NiceLevel)
	doc, err := rain.Build(opts.Config)
	buildTime := time.Since(buildStart)
	observability.Build().OnBuildComplete(ctx, opts.Config.NiceLevel, len(doc.Strands), buildTime, err)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = buildTime
	result.Stats.Strands = len(doc.Strands)
	result.Stats.Glyphs = doc.GlyphCount()
	result.Stats.NiceLevel = doc.NiceLevel

	opts.Logger.Info("built scene",
		"strands", result.Stats.Strands,
		"glyphs", result.Stats.Glyphs,
		"duration", buildTime)

	// Stage 2: Encode
	encodeStart := time.Now()
	observability.Build().OnEncodeStart(ctx)
	data := doc.Encode()
	encodeTime := time.Since(encodeStart)
	observability.Build().OnEncodeComplete(ctx, len(data), encodeTime, nil)
	result.Document = data
	result.Stats.EncodeTime = encodeTime

	opts.Logger.Info("encoded document",
		"bytes", len(data),
		"duration", encodeTime)

	// Cache the result
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLDocument); err == nil {
		observability.Cache().OnCacheSet(ctx, "doc", len(data))
	}

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
