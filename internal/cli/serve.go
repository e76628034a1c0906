package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/K2/matrix.svg/pkg/cache"
	"github.com/K2/matrix.svg/pkg/errors"
	"github.com/K2/matrix.svg/pkg/observability"
	"github.com/K2/matrix.svg/pkg/pipeline"
	"github.com/K2/matrix.svg/pkg/rain"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr         string
	cacheBackend string // file, redis, or none
	redisAddr    string
}

// serveCommand creates the preview server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generated documents over HTTP",
		Long: `Serve starts a preview server. GET / renders a document; every
configuration knob is available as a query parameter (nice, gps_min,
gps_max, columns_regular, columns_irregular, width_offset, lightning,
metadata, preset). Documents are cached by configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.cacheBackend, "cache-backend", "file", "document cache backend: file, redis, none")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for --cache-backend redis")

	return cmd
}

// runServe builds the cache backend, wires the router, and serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	store, err := newServeCache(ctx, opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "initialize %s cache", opts.cacheBackend)
	}

	runner := pipeline.NewRunner(store, nil, c.Logger)
	defer runner.Close()

	server := &http.Server{
		Addr:         opts.addr,
		Handler:      newServeHandler(runner, c),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	c.Logger.Info("preview server listening", "addr", opts.addr, "cache", opts.cacheBackend)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// newServeCache selects the cache backend for the server.
func newServeCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	switch opts.cacheBackend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redisAddr})
	case "file":
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be file, redis, or none)", opts.cacheBackend)
	}
}

// newServeHandler builds the chi router for the preview server.
func newServeHandler(runner *pipeline.Runner, c *CLI) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(hookMiddleware(c))

	r.Get("/healthz", handleHealth)
	r.Get("/", handleDocument(runner))

	return r
}

// hookMiddleware reports requests to the registered server hooks and logger.
func hookMiddleware(c *CLI) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			observability.Serve().OnRequest(r.Context(), r.Method, r.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			observability.Serve().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
			c.Logger.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", elapsed.Round(time.Millisecond))
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// handleDocument renders a document for the query-parameter configuration.
func handleDocument(runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := configFromQuery(r.URL.Query())
		if err != nil {
			http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
			return
		}

		result, err := runner.Execute(r.Context(), pipeline.Options{Config: cfg})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.GetCode(err) == errors.ErrCodeInvalidConfiguration {
				status = http.StatusBadRequest
			}
			http.Error(w, errors.UserMessage(err), status)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("ETag", `"`+result.DocumentID+`"`)
		_, _ = w.Write(result.Document)
	}
}

// configFromQuery builds a configuration from URL query parameters. An
// optional preset parameter selects the base; individual parameters
// override it.
func configFromQuery(q url.Values) (rain.Config, error) {
	cfg := rain.DefaultConfig()

	if name := q.Get("preset"); name != "" {
		preset, err := rain.Preset(name)
		if err != nil {
			return rain.Config{}, err
		}
		cfg = preset
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"nice", &cfg.NiceLevel},
		{"gps_min", &cfg.GlyphsMin},
		{"gps_max", &cfg.GlyphsMax},
		{"columns_regular", &cfg.RegularColumns},
		{"columns_irregular", &cfg.IrregularColumns},
		{"width_offset", &cfg.WidthOffset},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return rain.Config{}, errors.New(errors.ErrCodeInvalidConfiguration, "%s must be an integer, got %q", p.key, raw)
		}
		*p.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"lightning", &cfg.IncludeLightning},
		{"metadata", &cfg.IncludeMetadata},
	}
	for _, p := range bools {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return rain.Config{}, errors.New(errors.ErrCodeInvalidConfiguration, "%s must be a boolean, got %q", p.key, raw)
		}
		*p.dst = v
	}

	return cfg, nil
}
