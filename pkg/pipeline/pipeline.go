// Package pipeline provides the core document generation pipeline.
//
// This package implements the complete build → encode pipeline that can be
// used by CLI and server components. By centralizing this logic, we ensure
// consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Build: Construct the animated scene from a configuration
//  2. Encode: Serialize the scene to SVG markup
//
// Because the scene is a pure function of its configuration, the encoded
// document is cached under a key derived from the canonical configuration
// string. Identical configurations are served from cache.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Config: rain.DefaultConfig(),
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Document
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/K2/matrix.svg/pkg/rain"
)

// Options contains all configuration for the generation pipeline.
type Options struct {
	// Config describes the scene to generate.
	Config rain.Config

	// Refresh bypasses the cache and regenerates the document.
	Refresh bool

	// Logger receives progress output. Defaults to a discarding logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the encoded SVG markup.
	Document []byte

	// DocumentID is the stable identifier derived from the configuration.
	DocumentID string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the document came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Strands    int
	Glyphs     int
	NiceLevel  int
	BuildTime  time.Duration
	EncodeTime time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	DocumentHit bool // Whether the document came from cache
}

// ValidateAndSetDefaults checks the configuration and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
