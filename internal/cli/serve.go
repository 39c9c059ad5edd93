package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqgraph/internal/config"
	"github.com/matzehuels/reqgraph/internal/server"
	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/deps"
	"github.com/matzehuels/reqgraph/pkg/deps/python"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, backend string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dependency graph API over HTTP",
		Long: `Run the HTTP API:

  GET  /healthz                             build information
  GET  /v1/packages/{name}/dependencies     direct dependencies of one package
  POST /v1/graphs                           resolve and classify a set of roots
  GET  /metrics                             Prometheus metrics`,
		Example: `  reqgraph serve --addr :8080
  REQGRAPH_CACHE_BACKEND=redis REQGRAPH_REDIS_ADDR=localhost:6379 reqgraph serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("cache") {
				cfg.Cache.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	def := config.Default()
	cmd.Flags().StringVar(&addr, "addr", def.Serve.Addr, "listen address")
	cmd.Flags().StringVar(&backend, "cache", def.Cache.Backend, "cache backend: file, memory, redis, mongo or none")

	return cmd
}

// newServer wires the API on top of the configured cache backend. The
// returned runner owns the cache.
func (c *CLI) newServer(ctx context.Context, cfg *config.Config) (*server.Server, *pipeline.Runner, error) {
	backend, err := cache.Open(ctx, cfg.CacheBackend())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	fetcher := python.NewFetcher(cfg.NewPyPIClient(backend))
	logger := loggerFromContext(ctx)
	runner := pipeline.NewRunner(deps.NewResolver("pypi", fetcher), backend, nil, logger)

	metrics := server.NewMetrics(nil)
	metrics.Register()

	return server.New(cfg, runner, fetcher, logger, metrics), runner, nil
}

// runServe runs the API until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	srv, runner, err := c.newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	printInfo("Listening on %s", StyleHighlight.Render(cfg.Serve.Addr))
	printDetail("cache: %s · depth %d · max roots %d", cfg.Cache.Backend, cfg.Depth, cfg.Serve.MaxRoots)
	return srv.Run(ctx)
}
