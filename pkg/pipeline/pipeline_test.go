package pipeline

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/K2/matrix.svg/pkg/cache"
	apperrors "github.com/K2/matrix.svg/pkg/errors"
	"github.com/K2/matrix.svg/pkg/rain"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestExecuteProducesDocument(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{Config: rain.DefaultConfig()})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(result.Document) == 0 {
		t.Fatal("Execute should produce a document")
	}
	if !bytes.HasPrefix(result.Document, []byte("<svg")) {
		t.Error("Document should start with <svg")
	}
	if result.CacheInfo.DocumentHit {
		t.Error("First run with NullCache should not hit cache")
	}
	if result.Stats.Strands == 0 {
		t.Error("Stats.Strands should be nonzero")
	}
	if result.Stats.Glyphs == 0 {
		t.Error("Stats.Glyphs should be nonzero")
	}
	if result.DocumentID == "" {
		t.Error("DocumentID should be set")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	cfg := rain.DefaultConfig()
	r1, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	r2, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !bytes.Equal(r1.Document, r2.Document) {
		t.Error("Identical configurations should produce identical documents")
	}
	if r1.DocumentID != r2.DocumentID {
		t.Error("Identical configurations should produce identical document IDs")
	}
}

func TestExecuteUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runner := NewRunner(c, nil, testLogger())
	defer runner.Close()

	ctx := context.Background()
	cfg := rain.DefaultConfig()

	r1, err := runner.Execute(ctx, Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if r1.CacheInfo.DocumentHit {
		t.Error("First run should miss cache")
	}

	r2, err := runner.Execute(ctx, Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !r2.CacheInfo.DocumentHit {
		t.Error("Second run should hit cache")
	}
	if !bytes.Equal(r1.Document, r2.Document) {
		t.Error("Cached document should match the original")
	}

	// Different config misses
	other := cfg
	other.IncludeLightning = !cfg.IncludeLightning
	r3, err := runner.Execute(ctx, Options{Config: other})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if r3.CacheInfo.DocumentHit {
		t.Error("Different configuration should miss cache")
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runner := NewRunner(c, nil, testLogger())
	defer runner.Close()

	ctx := context.Background()
	cfg := rain.DefaultConfig()

	if _, err := runner.Execute(ctx, Options{Config: cfg}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	r, err := runner.Execute(ctx, Options{Config: cfg, Refresh: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if r.CacheInfo.DocumentHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	cfg := rain.DefaultConfig()
	cfg.GlyphsMin = 10
	cfg.GlyphsMax = 5

	_, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err == nil {
		t.Fatal("Execute should reject invalid configuration")
	}
	if apperrors.GetCode(err) != apperrors.ErrCodeInvalidConfiguration {
		t.Errorf("error code = %v, want %v", apperrors.GetCode(err), apperrors.ErrCodeInvalidConfiguration)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Config: rain.DefaultConfig()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Logger == nil {
		t.Fatal("Logger should default to a discarding logger")
	}
	logger := opts.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults error: %v", err)
	}
	if opts.Logger != logger {
		t.Error("Repeated validation should not replace the logger")
	}
}
